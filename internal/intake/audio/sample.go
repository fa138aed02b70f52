package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sample is one captured phrase: mono 16-bit PCM
type Sample struct {
	Data       []int16
	SampleRate int
}

// Empty reports whether the sample carries no audio
func (s Sample) Empty() bool { return len(s.Data) == 0 }

// Duration returns the length of the audio
func (s Sample) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Data)) * time.Second / time.Duration(s.SampleRate)
}

// PCM returns the samples as LINEAR16 little-endian bytes
func (s Sample) PCM() []byte {
	out := make([]byte, len(s.Data)*2)
	for i, v := range s.Data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// WAV encodes the sample as a RIFF/WAVE file
func (s Sample) WAV() ([]byte, error) {
	// the encoder needs to seek back to patch the header sizes
	f, err := os.CreateTemp("", "intake-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	enc := wav.NewEncoder(f, s.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  s.SampleRate,
		},
		Data:           make([]int, len(s.Data)),
		SourceBitDepth: 16,
	}
	for i, v := range s.Data {
		buf.Data[i] = int(v)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close wav file: %w", err)
	}

	return os.ReadFile(path)
}

// samplesFor converts a duration into a sample count at the given rate
func samplesFor(d time.Duration, sampleRate int) int {
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}
