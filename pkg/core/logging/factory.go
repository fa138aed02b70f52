// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     logging
// Description: Factory functions for zap-backed component loggers
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format
	Format string // "json" or "text" (default: json)

	// Output is where entries are written (default: stderr)
	Output io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// Logger wraps a sugared zap logger with key-value helpers
type Logger struct {
	sugar *zap.SugaredLogger
	cfg   LoggerConfig
	name  string
}

// NewLogger creates a new logger from the given configuration
func NewLogger(cfg LoggerConfig) *Logger {
	return &Logger{
		sugar: buildZap(cfg, ParseLevel(cfg.Level)).Sugar(),
		cfg:   cfg,
		name:  cfg.ServiceName,
	}
}

// New creates a logger with default configuration
func New(name string) *Logger {
	return NewLogger(DefaultLoggerConfig(name))
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{
		sugar: zap.NewNop().Sugar(),
		cfg:   LoggerConfig{Output: io.Discard},
		name:  "nop",
	}
}

// buildZap assembles the zap core for a configuration
func buildZap(cfg LoggerConfig, level Level) *zap.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), zap.NewAtomicLevelAt(level.zapLevel()))

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.ServiceName != "" {
		logger = logger.Named(cfg.ServiceName)
	}
	return logger
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	if l.name == "nop" {
		return l
	}
	return &Logger{
		sugar: buildZap(l.cfg, level).Sugar(),
		cfg:   l.cfg,
		name:  l.name,
	}
}

// With returns a child logger that always carries the given key-value pairs
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		sugar: l.sugar.With(keysAndValues...),
		cfg:   l.cfg,
		name:  l.name,
	}
}

// Named returns a child logger for a sub-component
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		sugar: l.sugar.Named(name),
		cfg:   l.cfg,
		name:  l.name + "." + name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
