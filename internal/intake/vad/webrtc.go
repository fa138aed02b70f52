// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD implementation
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD implements voice activity detection using WebRTC's VAD
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCVAD creates a new WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	if err := validateSampleRate(cfg.SampleRate); err != nil {
		return nil, err
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	mode := min(max(cfg.Mode, 0), 3)
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &WebRTCVAD{
		vad:        vad,
		sampleRate: cfg.SampleRate,
		mode:       mode,
	}, nil
}

func validateSampleRate(rate int) error {
	validRates := []int{8000, 16000, 32000, 48000}
	for _, r := range validRates {
		if rate == r {
			return nil
		}
	}
	return fmt.Errorf("invalid sample rate %d, must be one of %v", rate, validRates)
}

// IsSpeech processes 16-bit samples in 10ms frames and reports whether any
// frame contains speech
func (w *WebRTCVAD) IsSpeech(samples []int16) (bool, error) {
	frameSize := w.frameSize()

	if len(samples) < frameSize {
		// Pad with zeros if too short
		padded := make([]int16, frameSize)
		copy(padded, samples)
		samples = padded
	}

	for i := 0; i+frameSize <= len(samples); i += frameSize {
		active, err := w.vad.Process(w.sampleRate, int16ToBytes(samples[i:i+frameSize]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

// frameSize returns the frame size for 10ms at the configured sample rate
func (w *WebRTCVAD) frameSize() int {
	return w.sampleRate / 100
}

// int16ToBytes converts int16 slice to bytes (little-endian)
func int16ToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	return bytes
}

// Mode returns the current aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// SampleRate returns the sample rate
func (w *WebRTCVAD) SampleRate() int {
	return w.sampleRate
}
