// ABOUTME: RMS amplitude onset fallback
// ABOUTME: Emits kick events on threshold crossings when spectral analysis is unavailable
package onset

import (
	"time"

	"github.com/echo-haptics/echo-go/pkg/rhythm"
)

// AmplitudeConfig tunes the fallback detector.
type AmplitudeConfig struct {
	// Threshold is the amplitude that must be crossed upward (default 0.6)
	Threshold float64

	// Cooldown between fallback events (default 150ms)
	Cooldown time.Duration
}

// DefaultAmplitudeConfig returns the fallback defaults.
func DefaultAmplitudeConfig() AmplitudeConfig {
	return AmplitudeConfig{
		Threshold: 0.6,
		Cooldown:  150 * time.Millisecond,
	}
}

// AmplitudeDetector is the cheap loudness-only kick detector. The pipeline
// consults it only while the spectral path is unavailable.
type AmplitudeDetector struct {
	cfg       AmplitudeConfig
	previous  float64
	lastEvent time.Time
}

// NewAmplitudeDetector creates a fallback detector.
func NewAmplitudeDetector(cfg AmplitudeConfig) *AmplitudeDetector {
	d := DefaultAmplitudeConfig()
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = d.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = d.Cooldown
	}
	return &AmplitudeDetector{cfg: cfg}
}

// Detect emits a kick when amplitude rises through the threshold.
func (d *AmplitudeDetector) Detect(amplitude float64, now time.Time) (rhythm.Event, bool) {
	previous := d.previous
	d.previous = amplitude

	if amplitude < d.cfg.Threshold || previous >= d.cfg.Threshold {
		return rhythm.Event{}, false
	}
	if !d.lastEvent.IsZero() && now.Sub(d.lastEvent) < d.cfg.Cooldown {
		return rhythm.Event{}, false
	}

	d.lastEvent = now
	return rhythm.Event{
		Time:      now,
		Category:  rhythm.Kick,
		Intensity: clamp(amplitude, 0, 1),
	}, true
}
