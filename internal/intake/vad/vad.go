// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection for single-phrase capture
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// Detector is the interface for voice activity detection
type Detector interface {
	// IsSpeech reports whether the frame contains speech
	IsSpeech(frame []int16) (bool, error)
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000, or 48000)
	SampleRate int

	// Mode/Aggressiveness (0-3 for WebRTC VAD, higher = more aggressive filtering)
	Mode int

	// EnergyRatio scales the ambient energy into the speech threshold
	EnergyRatio float64

	// MinEnergy is the lowest threshold calibration may produce
	MinEnergy float64
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		Mode:        2, // Moderate aggressiveness
		EnergyRatio: 1.5,
		MinEnergy:   300,
	}
}

// TrackerConfig holds the limits of one phrase
type TrackerConfig struct {
	SampleRate     int
	PauseThreshold time.Duration // trailing silence that ends the phrase
	PhraseLimit    time.Duration // maximum phrase length, 0 = unlimited
}

// SpeechTracker tracks speech state on the sample clock. Durations are
// derived from the number of samples seen, not from wall time.
type SpeechTracker struct {
	config         TrackerConfig
	speechStarted  bool
	speechSamples  int
	silenceSamples int
	pauseLimit     int
	phraseLimit    int
}

// NewSpeechTracker creates a new speech tracker
func NewSpeechTracker(cfg TrackerConfig) *SpeechTracker {
	return &SpeechTracker{
		config:      cfg,
		pauseLimit:  toSamples(cfg.PauseThreshold, cfg.SampleRate),
		phraseLimit: toSamples(cfg.PhraseLimit, cfg.SampleRate),
	}
}

// Update records a frame of n samples classified as speech or silence
func (t *SpeechTracker) Update(isSpeech bool, n int) {
	if isSpeech {
		t.speechStarted = true
		t.silenceSamples = 0
	} else if t.speechStarted {
		t.silenceSamples += n
	}
	if t.speechStarted {
		t.speechSamples += n
	}
}

// Started reports whether speech onset has been seen
func (t *SpeechTracker) Started() bool {
	return t.speechStarted
}

// ShouldStop returns true once the pause threshold or the phrase limit is reached
func (t *SpeechTracker) ShouldStop() bool {
	if !t.speechStarted {
		return false
	}
	if t.pauseLimit > 0 && t.silenceSamples >= t.pauseLimit {
		return true
	}
	return t.phraseLimit > 0 && t.speechSamples >= t.phraseLimit
}

// SpeechDuration returns the phrase length since onset
func (t *SpeechTracker) SpeechDuration() time.Duration {
	return fromSamples(t.speechSamples, t.config.SampleRate)
}

// SilenceDuration returns the current trailing silence
func (t *SpeechTracker) SilenceDuration() time.Duration {
	return fromSamples(t.silenceSamples, t.config.SampleRate)
}

// Reset resets the tracker state
func (t *SpeechTracker) Reset() {
	t.speechStarted = false
	t.speechSamples = 0
	t.silenceSamples = 0
}

func toSamples(d time.Duration, rate int) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int(int64(d) * int64(rate) / int64(time.Second))
}

func fromSamples(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
