// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     intake
// Description: Intake form controller wiring voice input and persistence
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/msto63/intake/internal/intake/binder"
	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
	"github.com/msto63/intake/internal/intake/store"
	"github.com/msto63/intake/pkg/core/logging"
)

// Operator-facing titles and messages
const (
	TitleSummary   = "Form Summary"
	TitleSuccess   = "Success"
	TitleError     = "Error"
	TitleVoice     = "Voice Input"
	MsgSaved       = "Data saved successfully!"
	msgSaveFailure = "Failed to save to %s store: %v"
)

// ErrVoiceDisabled is returned by Listen when no listener is wired
var ErrVoiceDisabled = errors.New("voice input is not configured")

// Listener captures and recognizes one phrase for a field
type Listener interface {
	Listen(ctx context.Context, name form.FieldName, prompt string) binder.VoiceRequest
}

// Persister writes a record to every sink
type Persister interface {
	Persist(ctx context.Context, rec form.Record) store.PersistResult
}

// Viewer lists persisted records
type Viewer interface {
	ListAll(ctx context.Context) ([]store.PersistedRow, error)
}

// Deps are the collaborators of a Form. Listener may be nil when no audio
// device is configured.
type Deps struct {
	Listener  Listener
	Persister Persister
	Viewer    Viewer
	Notifier  notify.Notifier
	Logger    *logging.Logger
}

// Form owns the field set of one intake session
type Form struct {
	fields    *form.FieldSet
	listener  Listener
	persister Persister
	viewer    Viewer
	notifier  notify.Notifier
	logger    *logging.Logger
}

// NewForm creates a form with every field empty
func NewForm(deps Deps) *Form {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Form{
		fields:    form.NewFieldSet(),
		listener:  deps.Listener,
		persister: deps.Persister,
		viewer:    deps.Viewer,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
	}
}

// Fields returns the field set owned by the form
func (f *Form) Fields() *form.FieldSet { return f.fields }

// VoiceEnabled reports whether voice input is wired
func (f *Form) VoiceEnabled() bool { return f.listener != nil }

// Set stores a typed value
func (f *Form) Set(name form.FieldName, value string) error {
	return f.fields.Set(name, value)
}

// Listen runs a voice request for a field without changing it
func (f *Form) Listen(ctx context.Context, name form.FieldName) (binder.VoiceRequest, error) {
	def, ok := form.Lookup(name)
	if !ok {
		return binder.VoiceRequest{}, fmt.Errorf("%w: %q", form.ErrUnknownField, name)
	}
	if f.listener == nil {
		return binder.VoiceRequest{}, ErrVoiceDisabled
	}
	return f.listener.Listen(ctx, name, def.Prompt), nil
}

// Apply writes a completed voice request into its field
func (f *Form) Apply(req binder.VoiceRequest) bool {
	return binder.Apply(f.fields, req)
}

// FillByVoice prompts for a field, listens and replaces the value on
// success. Failures are reported through the notifier and the returned
// request; the field keeps its value.
func (f *Form) FillByVoice(ctx context.Context, name form.FieldName) binder.VoiceRequest {
	req, err := f.Listen(ctx, name)
	if err != nil {
		f.logger.Warn("Voice request not started", "field", name, "error", err)
		f.notifier.Notify(notify.Errorf(TitleVoice, err.Error()))
		return binder.VoiceRequest{Field: name, Outcome: binder.OutcomeCaptureFailed, Err: err}
	}
	f.Apply(req)
	return req
}

// Save assembles the current values, shows the summary and persists the
// record to both sinks. A failing sink is reported but never blocks the other.
func (f *Form) Save(ctx context.Context) (form.Record, store.PersistResult) {
	rec := form.Assemble(f.fields)
	f.notifier.Notify(notify.Infof(TitleSummary, form.Summarize(rec)))

	res := f.persister.Persist(ctx, rec)
	if res.FlatErr != nil {
		f.notifier.Notify(notify.Errorf(TitleError, fmt.Sprintf(msgSaveFailure, store.SinkFlat, res.FlatErr)))
	}
	if res.RelationalErr != nil {
		f.notifier.Notify(notify.Errorf(TitleError, fmt.Sprintf(msgSaveFailure, store.SinkRelational, res.RelationalErr)))
	}
	if res.OK() {
		f.notifier.Notify(notify.Infof(TitleSuccess, MsgSaved))
	}

	f.logger.Info("Form saved", "row_id", res.RowID, "flat_ok", res.FlatOK, "relational_ok", res.RelationalOK)
	return rec, res
}

// Clear resets every field to empty
func (f *Form) Clear() {
	f.fields.Clear()
	f.logger.Debug("Form cleared")
}

// Records lists every persisted record in ascending id order
func (f *Form) Records(ctx context.Context) ([]store.PersistedRow, error) {
	return f.viewer.ListAll(ctx)
}
