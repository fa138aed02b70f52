// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     audio
// Description: Input device settings and device name matching
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package audio

import "strings"

// DeviceConfig holds configuration for a microphone
type DeviceConfig struct {
	SampleRate      int
	FramesPerBuffer int
	DeviceName      string // Name of the input device (empty or "default" = default)
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate:      DefaultSampleRate,
		FramesPerBuffer: DefaultFramesPerBuffer,
	}
}

// WantsDefault reports whether the default input device should be used
func (c DeviceConfig) WantsDefault() bool {
	return c.DeviceName == "" || c.DeviceName == "default"
}

// DeviceInfo holds information about an audio input device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// MatchDevice picks the configured device from a list of input device
// names. An exact name wins; otherwise the first case-insensitive substring
// match is taken. It returns -1 when nothing matches.
func MatchDevice(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	lower := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			return i
		}
	}
	return -1
}
