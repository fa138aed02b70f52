package vad

import (
	"math"
	"sync"
)

// EnergyDetector classifies frames by RMS energy against a threshold that is
// recomputed from ambient noise on every Calibrate call.
type EnergyDetector struct {
	mu        sync.RWMutex
	ratio     float64
	minimum   float64
	threshold float64
}

// NewEnergyDetector creates an energy detector starting at the minimum threshold
func NewEnergyDetector(cfg Config) *EnergyDetector {
	ratio := cfg.EnergyRatio
	if ratio <= 0 {
		ratio = 1.5
	}
	return &EnergyDetector{
		ratio:     ratio,
		minimum:   cfg.MinEnergy,
		threshold: cfg.MinEnergy,
	}
}

// Calibrate sets the threshold from the ambient frames. Without frames the
// previous threshold is kept.
func (e *EnergyDetector) Calibrate(frames [][]int16) {
	var sum float64
	var n int
	for _, f := range frames {
		for _, s := range f {
			v := float64(s)
			sum += v * v
		}
		n += len(f)
	}
	if n == 0 {
		return
	}
	ambient := math.Sqrt(sum / float64(n))

	e.mu.Lock()
	e.threshold = math.Max(e.minimum, ambient*e.ratio)
	e.mu.Unlock()
}

// Threshold returns the current speech threshold
func (e *EnergyDetector) Threshold() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.threshold
}

// IsSpeech reports whether the frame energy exceeds the threshold
func (e *EnergyDetector) IsSpeech(frame []int16) (bool, error) {
	return RMS(frame) > e.Threshold(), nil
}

// RMS returns the root-mean-square amplitude of a frame
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Gate combines the calibrated energy detector with an optional second
// opinion (WebRTC VAD). A frame is speech only if both agree.
type Gate struct {
	energy    *EnergyDetector
	secondary Detector
}

// NewGate creates a gate; secondary may be nil
func NewGate(energy *EnergyDetector, secondary Detector) *Gate {
	return &Gate{energy: energy, secondary: secondary}
}

// Calibrate forwards the ambient frames to the energy stage
func (g *Gate) Calibrate(frames [][]int16) {
	g.energy.Calibrate(frames)
}

// IsSpeech implements Detector
func (g *Gate) IsSpeech(frame []int16) (bool, error) {
	loud, err := g.energy.IsSpeech(frame)
	if err != nil || !loud {
		return false, err
	}
	if g.secondary == nil {
		return true, nil
	}
	return g.secondary.IsSpeech(frame)
}
