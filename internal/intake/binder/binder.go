// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     binder
// Description: Voice-to-field binding: prompt, capture, recognize, assign
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package binder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
	"github.com/msto63/intake/internal/intake/stt"
	"github.com/msto63/intake/pkg/core/logging"
)

// Operator-facing messages
const (
	MsgCaptureTimeout     = "No speech detected. Please try again."
	MsgCaptureFailed      = "Could not record audio. Please check the microphone."
	MsgUnintelligible     = "Sorry, I couldn't understand that."
	MsgServiceUnavailable = "Speech service is unavailable. Please check your connection."
)

// Outcome is the result of one voice request
type Outcome int

const (
	// OutcomeFilled means recognized text is ready to replace the field value
	OutcomeFilled Outcome = iota
	// OutcomeCaptureTimeout means nobody spoke within the wait window
	OutcomeCaptureTimeout
	// OutcomeCaptureFailed means the audio device could not be used
	OutcomeCaptureFailed
	// OutcomeUnintelligible means the audio held no recognizable speech
	OutcomeUnintelligible
	// OutcomeServiceUnavailable means the recognizer could not be reached
	OutcomeServiceUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeCaptureTimeout:
		return "capture_timeout"
	case OutcomeCaptureFailed:
		return "capture_failed"
	case OutcomeUnintelligible:
		return "unintelligible"
	case OutcomeServiceUnavailable:
		return "service_unavailable"
	default:
		return "unknown"
	}
}

// Capturer records one phrase
type Capturer interface {
	Capture(ctx context.Context, maxWait, maxPhrase time.Duration) (audio.Sample, error)
}

// VoiceRequest is one attempt to fill a field by voice. It lives only for
// the duration of the attempt.
type VoiceRequest struct {
	ID      string
	Field   form.FieldName
	Prompt  string
	Sample  audio.Sample
	Text    string
	Outcome Outcome
	Err     error
}

// Config holds the capture limits of one voice request
type Config struct {
	WaitTimeout time.Duration
	PhraseLimit time.Duration
}

// DefaultConfig returns the default limits (3s wait, 4s phrase)
func DefaultConfig() Config {
	return Config{
		WaitTimeout: 3 * time.Second,
		PhraseLimit: 4 * time.Second,
	}
}

// Binder runs voice requests against a capture device and a recognizer
type Binder struct {
	capture    Capturer
	recognizer stt.Recognizer
	notifier   notify.Notifier
	cfg        Config
	logger     *logging.Logger
}

// New creates a binder
func New(capture Capturer, recognizer stt.Recognizer, notifier notify.Notifier, cfg Config, logger *logging.Logger) *Binder {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Binder{
		capture:    capture,
		recognizer: recognizer,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Listen prompts, captures and recognizes one phrase. It never touches a
// FieldSet and every failure is reported through the returned request and
// the notifier.
func (b *Binder) Listen(ctx context.Context, name form.FieldName, prompt string) VoiceRequest {
	req := VoiceRequest{
		ID:     uuid.NewString(),
		Field:  name,
		Prompt: prompt,
	}
	log := b.logger.With("request_id", req.ID, "field", string(name))

	if prompt != "" {
		b.notifier.Notify(notify.Infof("Voice Input", prompt))
	}
	log.Debug("Voice request started")

	sample, err := b.capture.Capture(ctx, b.cfg.WaitTimeout, b.cfg.PhraseLimit)
	if err != nil {
		req.Err = err
		if errors.Is(err, audio.ErrCaptureTimeout) {
			req.Outcome = OutcomeCaptureTimeout
		} else {
			req.Outcome = OutcomeCaptureFailed
		}
		return b.finish(log, req)
	}
	req.Sample = sample

	text, err := b.recognizer.Recognize(ctx, sample)
	text = strings.TrimSpace(text)
	switch {
	case err != nil && stt.KindOf(err) == stt.Unintelligible:
		req.Outcome, req.Err = OutcomeUnintelligible, err
	case err != nil:
		req.Outcome, req.Err = OutcomeServiceUnavailable, err
	case text == "":
		req.Outcome, req.Err = OutcomeUnintelligible, stt.ErrEmptyTranscript
	default:
		req.Outcome, req.Text = OutcomeFilled, text
	}
	return b.finish(log, req)
}

func (b *Binder) finish(log *logging.Logger, req VoiceRequest) VoiceRequest {
	switch req.Outcome {
	case OutcomeFilled:
		log.Info("Voice request filled", "outcome", req.Outcome.String())
		b.notifier.Notify(notify.Infof("Recognized", "You said: "+req.Text))
		return req
	case OutcomeCaptureTimeout:
		b.notifier.Notify(notify.Errorf("Timeout", MsgCaptureTimeout))
	case OutcomeCaptureFailed:
		b.notifier.Notify(notify.Errorf("Microphone", MsgCaptureFailed))
	case OutcomeUnintelligible:
		b.notifier.Notify(notify.Errorf("Error", MsgUnintelligible))
	case OutcomeServiceUnavailable:
		b.notifier.Notify(notify.Errorf("Error", MsgServiceUnavailable))
	}
	log.Warn("Voice request failed", "outcome", req.Outcome.String(), "error", req.Err)
	return req
}

// Apply writes the recognized text into the field when the request was
// filled and reports whether the field changed. The value is replaced in a
// single assignment.
func Apply(fields *form.FieldSet, req VoiceRequest) bool {
	if req.Outcome != OutcomeFilled || req.Text == "" {
		return false
	}
	f := fields.Field(req.Field)
	if f == nil {
		return false
	}
	f.Replace(req.Text)
	return true
}

// FillByVoice runs Listen and applies the result to fields
func (b *Binder) FillByVoice(ctx context.Context, fields *form.FieldSet, name form.FieldName, prompt string) VoiceRequest {
	req := b.Listen(ctx, name, prompt)
	Apply(fields, req)
	return req
}
