// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     notify
// Description: Operator notifications (status line, log, desktop)
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/msto63/intake/pkg/core/logging"
)

// Level is the severity of a notification
type Level int

const (
	// Info reports progress or success
	Info Level = iota
	// Error reports a failure the operator should act on
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "info"
}

// Notification is one message to the operator
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier delivers notifications. Delivery failures are never reported
// back to the caller.
type Notifier interface {
	Notify(n Notification)
}

// Infof builds an info notification
func Infof(title, message string) Notification {
	return Notification{Level: Info, Title: title, Message: message}
}

// Errorf builds an error notification
func Errorf(title, message string) Notification {
	return Notification{Level: Error, Title: title, Message: message}
}

// Func adapts a function to Notifier
type Func func(Notification)

// Notify implements Notifier
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification
var Discard Notifier = Func(func(Notification) {})

// Multi fans a notification out to several notifiers in order
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (l *LogNotifier) Notify(n Notification) {
	if n.Level == Error {
		l.logger.Error(n.Message, "title", n.Title)
		return
	}
	l.logger.Info(n.Message, "title", n.Title)
}

// DesktopNotifier shows notifications through the OS notification center
type DesktopNotifier struct {
	appName string
	logger  *logging.Logger

	// overridable in tests
	notify func(title, message, icon string) error
	alert  func(title, message, icon string) error
}

// NewDesktopNotifier creates a desktop notifier. The app name prefixes every title.
func NewDesktopNotifier(appName string, logger *logging.Logger) *DesktopNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DesktopNotifier{
		appName: appName,
		logger:  logger,
		notify:  func(t, m, i string) error { return beeep.Notify(t, m, i) },
		alert:   func(t, m, i string) error { return beeep.Alert(t, m, i) },
	}
}

// Notify implements Notifier. Errors are shown as alerts.
func (d *DesktopNotifier) Notify(n Notification) {
	title := n.Title
	if d.appName != "" {
		title = d.appName + ": " + title
	}

	send := d.notify
	if n.Level == Error {
		send = d.alert
	}
	if err := send(title, n.Message, ""); err != nil {
		d.logger.Debug("Desktop notification failed", "error", err)
	}
}
