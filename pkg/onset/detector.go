// ABOUTME: Spectral onset detector
// ABOUTME: Per-band spike detection with cooldown, classified as kick, snare or hihat
package onset

import (
	"time"

	"github.com/echo-haptics/echo-go/pkg/rhythm"
)

// Config tunes the spectral detector.
type Config struct {
	// Floor is the minimum band energy that can count as a spike (default 1e-4)
	Floor float64

	// Ratio is the required rise over the previous block (default 1.6)
	Ratio float64

	// Cooldown is the minimum spacing between events of one band (default 80ms)
	Cooldown time.Duration
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		Floor:    1e-4,
		Ratio:    1.6,
		Cooldown: 80 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Floor <= 0 {
		c.Floor = d.Floor
	}
	if c.Ratio <= 0 {
		c.Ratio = d.Ratio
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	return c
}

const (
	bandLow = iota
	bandMid
	bandHigh
	numBands
)

// bandCategory is also the priority order: low beats mid beats high.
var bandCategory = [numBands]rhythm.Category{
	bandLow:  rhythm.Kick,
	bandMid:  rhythm.Snare,
	bandHigh: rhythm.HiHat,
}

// Detector classifies coarse band spikes into rhythm events. It is owned by
// the audio callback and is not safe for concurrent use.
type Detector struct {
	cfg       Config
	lastEvent [numBands]time.Time
}

// NewDetector creates a spectral onset detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Detect returns at most one event for the block. A band spikes when its
// energy is above the floor, has risen by Ratio over the previous block and
// its cooldown has elapsed.
func (d *Detector) Detect(low, mid, high, prevLow, prevMid, prevHigh float64, now time.Time) (rhythm.Event, bool) {
	current := [numBands]float64{low, mid, high}
	previous := [numBands]float64{prevLow, prevMid, prevHigh}

	for band := 0; band < numBands; band++ {
		if !d.spike(band, current[band], previous[band], now) {
			continue
		}

		d.lastEvent[band] = now
		total := low + mid + high
		return rhythm.Event{
			Time:      now,
			Category:  bandCategory[band],
			Intensity: clamp(current[band]/total*2, 0, 1),
		}, true
	}

	return rhythm.Event{}, false
}

func (d *Detector) spike(band int, current, previous float64, now time.Time) bool {
	if current <= d.cfg.Floor || current <= previous*d.cfg.Ratio {
		return false
	}
	last := d.lastEvent[band]
	return last.IsZero() || now.Sub(last) >= d.cfg.Cooldown
}

// Reset forgets cooldown state, e.g. after a seek.
func (d *Detector) Reset() {
	d.lastEvent = [numBands]time.Time{}
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
