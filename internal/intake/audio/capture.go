// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     audio
// Description: Bounded single-phrase capture with ambient calibration
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msto63/intake/internal/intake/vad"
	"github.com/msto63/intake/pkg/core/logging"
)

const (
	// DefaultSampleRate is the default sample rate for audio capture
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is 30ms at 16kHz, a whole number of VAD frames
	DefaultFramesPerBuffer = 480

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// ErrCaptureTimeout is returned when no speech starts within the wait window
var ErrCaptureTimeout = errors.New("no speech detected within the capture window")

// Stream is an open input stream delivering mono frames
type Stream interface {
	Read() ([]int16, error)
	Close() error
}

// Device opens input streams. Each Open grants exclusive use until Close.
type Device interface {
	Open() (Stream, error)
	SampleRate() int
}

// SpeechDetector decides speech versus silence per frame
type SpeechDetector interface {
	Calibrate(frames [][]int16)
	IsSpeech(frame []int16) (bool, error)
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// Calibration is the ambient-noise pass run before every listen
	Calibration time.Duration

	// PauseThreshold is the trailing silence that ends a phrase
	PauseThreshold time.Duration

	// PreRoll is audio kept from before speech onset
	PreRoll time.Duration
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Calibration:    200 * time.Millisecond,
		PauseThreshold: 800 * time.Millisecond,
		PreRoll:        300 * time.Millisecond,
	}
}

// Capture records one phrase per call from a device
type Capture struct {
	device   Device
	detector SpeechDetector
	cfg      CaptureConfig
	logger   *logging.Logger
}

// NewCapture creates a new audio capture instance
func NewCapture(device Device, detector SpeechDetector, cfg CaptureConfig, logger *logging.Logger) *Capture {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Capture{
		device:   device,
		detector: detector,
		cfg:      cfg,
		logger:   logger,
	}
}

// Capture calibrates against ambient noise, then waits up to maxWait for
// speech and records until a pause or maxPhrase of speech. The device is held
// for the whole call and released on every return path. A non-positive
// maxWait or maxPhrase disables that limit.
func (c *Capture) Capture(ctx context.Context, maxWait, maxPhrase time.Duration) (sample Sample, err error) {
	stream, err := c.device.Open()
	if err != nil {
		return Sample{}, fmt.Errorf("failed to open input device: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			c.logger.Warn("Failed to release input device", "error", cerr)
			if err == nil {
				err = fmt.Errorf("failed to close input device: %w", cerr)
			}
		}
	}()

	rate := c.device.SampleRate()

	if err := c.calibrate(ctx, stream, rate); err != nil {
		return Sample{}, err
	}
	c.logger.Info("Listening... Please speak now.")

	tracker := vad.NewSpeechTracker(vad.TrackerConfig{
		SampleRate:     rate,
		PauseThreshold: c.cfg.PauseThreshold,
		PhraseLimit:    maxPhrase,
	})
	preroll := NewRingBuffer(samplesFor(c.cfg.PreRoll, rate))
	phrase := NewAudioBuffer(samplesFor(maxPhrase, rate))
	waitLimit := samplesFor(maxWait, rate)
	waited := 0

	for {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}

		frame, err := stream.Read()
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read audio: %w", err)
		}
		if len(frame) == 0 {
			continue
		}

		speech, err := c.detector.IsSpeech(frame)
		if err != nil {
			return Sample{}, fmt.Errorf("speech detection failed: %w", err)
		}

		if !tracker.Started() {
			if !speech {
				preroll.Write(frame)
				waited += len(frame)
				if waitLimit > 0 && waited >= waitLimit {
					c.logger.Debug("Capture timed out", "waited", maxWait)
					return Sample{}, ErrCaptureTimeout
				}
				continue
			}
			phrase.Append(preroll.ReadAll())
		}

		phrase.Append(frame)
		tracker.Update(speech, len(frame))
		if tracker.ShouldStop() {
			break
		}
	}

	sample = Sample{Data: phrase.Get(), SampleRate: rate}
	c.logger.Debug("Phrase captured",
		"duration", sample.Duration(),
		"speech", tracker.SpeechDuration(),
	)
	return sample, nil
}

// calibrate reads the ambient-noise window and hands it to the detector
func (c *Capture) calibrate(ctx context.Context, stream Stream, rate int) error {
	want := samplesFor(c.cfg.Calibration, rate)
	var frames [][]int16
	got := 0
	for got < want {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := stream.Read()
		if err != nil {
			return fmt.Errorf("failed to read calibration audio: %w", err)
		}
		frames = append(frames, frame)
		got += len(frame)
	}
	c.detector.Calibrate(frames)
	c.logger.Debug("Ambient noise calibrated", "samples", got)
	return nil
}
