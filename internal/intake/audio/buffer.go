// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     audio
// Description: Sample buffers used while listening
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package audio

// RingBuffer keeps the most recent samples; older samples are overwritten.
// It holds the audio just before speech onset so the first syllable is kept.
type RingBuffer struct {
	data     []int16
	size     int
	writePos int
	readPos  int
	count    int
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		data: make([]int16, capacity),
		size: capacity,
	}
}

// Write writes samples to the buffer
func (rb *RingBuffer) Write(samples []int16) {
	for _, s := range samples {
		rb.data[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size

		if rb.count < rb.size {
			rb.count++
		} else {
			// Overwrite oldest data
			rb.readPos = (rb.readPos + 1) % rb.size
		}
	}
}

// ReadAll drains the buffer, oldest sample first
func (rb *RingBuffer) ReadAll() []int16 {
	samples := make([]int16, rb.count)
	for i := 0; i < rb.count; i++ {
		samples[i] = rb.data[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
	}
	rb.count = 0
	return samples
}

// Len returns the number of samples in the buffer
func (rb *RingBuffer) Len() int { return rb.count }

// Cap returns the capacity of the buffer
func (rb *RingBuffer) Cap() int { return rb.size }

// AudioBuffer is a growing buffer for collecting a phrase
type AudioBuffer struct {
	samples []int16
}

// NewAudioBuffer creates a new audio buffer with a capacity hint in samples
func NewAudioBuffer(capacityHint int) *AudioBuffer {
	return &AudioBuffer{samples: make([]int16, 0, capacityHint)}
}

// Append adds samples to the buffer
func (ab *AudioBuffer) Append(samples []int16) {
	ab.samples = append(ab.samples, samples...)
}

// Get returns a copy of all samples
func (ab *AudioBuffer) Get() []int16 {
	result := make([]int16, len(ab.samples))
	copy(result, ab.samples)
	return result
}

// Len returns the number of samples
func (ab *AudioBuffer) Len() int { return len(ab.samples) }
