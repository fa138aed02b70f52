// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     stt
// Description: Speech recognition interface and failure taxonomy
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/msto63/intake/internal/intake/audio"
)

// Recognizer turns one captured phrase into text. Implementations make a
// single attempt per call and never retry.
type Recognizer interface {
	// Recognize returns the transcript or a *RecognitionError
	Recognize(ctx context.Context, sample audio.Sample) (string, error)

	// Close releases resources
	Close() error
}

// FailureKind classifies why recognition produced no text
type FailureKind int

const (
	// Unknown is returned by KindOf for errors that are not recognition failures
	Unknown FailureKind = iota

	// Unintelligible means the service was reached but found no usable speech
	Unintelligible

	// ServiceUnavailable means the service could not be reached or failed
	ServiceUnavailable
)

// String returns the kind name
func (k FailureKind) String() string {
	switch k {
	case Unintelligible:
		return "unintelligible"
	case ServiceUnavailable:
		return "service_unavailable"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyTranscript is the cause when the service returned no text
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrEmptySample is the cause when there was no audio to send
	ErrEmptySample = errors.New("no audio samples provided")
)

// RecognitionError is the error returned by every Recognizer
type RecognitionError struct {
	Kind   FailureKind
	Engine string
	Err    error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%s recognition %s: %v", e.Engine, e.Kind, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or Unknown
func KindOf(err error) FailureKind {
	var re *RecognitionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return Unknown
}

func unintelligible(engine string, err error) error {
	return &RecognitionError{Kind: Unintelligible, Engine: engine, Err: err}
}

func unavailable(engine string, err error) error {
	return &RecognitionError{Kind: ServiceUnavailable, Engine: engine, Err: err}
}
