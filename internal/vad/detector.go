package vad

import (
	"fmt"
	"math"
	"sync"
)

// Detector scores fixed-size windows of PCM-16 audio by RMS energy and
// classifies them as silent or voiced against a configured threshold.
type Detector struct {
	threshold  float64
	windowSize int // samples per window

	// Statistics
	totalWindows  uint64
	silentWindows uint64

	mu sync.RWMutex
}

// DetectorStats represents detector statistics
type DetectorStats struct {
	TotalWindows  uint64  `json:"total_windows"`
	SilentWindows uint64  `json:"silent_windows"`
	SilentRatio   float64 `json:"silent_ratio"`
	Threshold     float64 `json:"threshold"`
	WindowSize    int     `json:"window_size"`
}

// NewDetector creates a new silence detector
func NewDetector(threshold float64, windowSize int) (*Detector, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}

	return &Detector{
		threshold:  threshold,
		windowSize: windowSize,
	}, nil
}

// Score returns the normalized RMS energy of a window in the range [0, 1].
// An all-zero window scores 0; a full-scale square wave scores 1.
func (d *Detector) Score(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var energy float64
	for _, sample := range samples {
		energy += float64(sample) * float64(sample)
	}
	rms := math.Sqrt(energy / float64(len(samples)))

	score := rms / float64(math.MaxInt16+1)
	if score > 1 {
		score = 1
	}
	return score
}

// IsSilent reports whether a window's energy falls below the threshold
func (d *Detector) IsSilent(samples []int16) bool {
	silent := d.Score(samples) < d.threshold

	d.mu.Lock()
	d.totalWindows++
	if silent {
		d.silentWindows++
	}
	d.mu.Unlock()

	return silent
}

// WindowSize returns the analysis window size in samples
func (d *Detector) WindowSize() int {
	return d.windowSize
}

// Threshold returns the current silence threshold
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// GetStats returns current detector statistics
func (d *Detector) GetStats() DetectorStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ratio := float64(0)
	if d.totalWindows > 0 {
		ratio = float64(d.silentWindows) / float64(d.totalWindows)
	}

	return DetectorStats{
		TotalWindows:  d.totalWindows,
		SilentWindows: d.silentWindows,
		SilentRatio:   ratio,
		Threshold:     d.threshold,
		WindowSize:    d.windowSize,
	}
}

// Reset resets the detector statistics
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.totalWindows = 0
	d.silentWindows = 0
}
