// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     mic
// Description: Microphone access using PortAudio
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

// Package mic is the only package linking libportaudio. Everything else
// works against audio.Device.
package mic

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/msto63/intake/internal/intake/audio"
)

// Device opens the microphone through PortAudio
type Device struct {
	cfg audio.DeviceConfig
}

// New creates a device handle; nothing is opened yet
func New(cfg audio.DeviceConfig) *Device {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = audio.DefaultFramesPerBuffer
	}
	return &Device{cfg: cfg}
}

// SampleRate returns the capture sample rate
func (d *Device) SampleRate() int {
	return d.cfg.SampleRate
}

// Open initializes PortAudio and starts an input stream
func (d *Device) Open() (audio.Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	buffer := make([]int16, d.cfg.FramesPerBuffer)

	stream, err := d.openStream(buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	return &stream16{stream: stream, buffer: buffer}, nil
}

// openStream opens the named device, falling back to the default input
func (d *Device) openStream(buffer []int16) (*portaudio.Stream, error) {
	if !d.cfg.WantsDefault() {
		if device, err := findInputDevice(d.cfg.DeviceName); err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: audio.DefaultChannels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(d.cfg.SampleRate),
				FramesPerBuffer: d.cfg.FramesPerBuffer,
			}
			return portaudio.OpenStream(params, buffer)
		}
	}

	return portaudio.OpenDefaultStream(
		audio.DefaultChannels, // input channels
		0,                     // output channels (none)
		float64(d.cfg.SampleRate),
		d.cfg.FramesPerBuffer,
		buffer,
	)
}

// findInputDevice resolves a configured name with audio.MatchDevice
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var inputs []*portaudio.DeviceInfo
	var names []string
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, dev)
			names = append(names, dev.Name)
		}
	}

	if i := audio.MatchDevice(names, name); i >= 0 {
		return inputs[i], nil
	}
	return nil, fmt.Errorf("device not found: %s", name)
}

type stream16 struct {
	stream *portaudio.Stream
	buffer []int16
}

// Read blocks until one buffer of frames is available
func (s *stream16) Read() ([]int16, error) {
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	frame := make([]int16, len(s.buffer))
	copy(frame, s.buffer)
	return frame, nil
}

// Close stops the stream and releases PortAudio
func (s *stream16) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	termErr := portaudio.Terminate()

	switch {
	case closeErr != nil:
		return fmt.Errorf("failed to close audio stream: %w", closeErr)
	case stopErr != nil:
		return fmt.Errorf("failed to stop audio stream: %w", stopErr)
	case termErr != nil:
		return fmt.Errorf("failed to terminate PortAudio: %w", termErr)
	}
	return nil
}

// ListInputDevices returns the available input devices
func ListInputDevices() ([]audio.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultInputName string
	if defaultInput != nil {
		defaultInputName = defaultInput.Name
	}

	var inputDevices []audio.DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, audio.DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultInputName,
			})
		}
	}

	return inputDevices, nil
}
