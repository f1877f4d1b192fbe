// ABOUTME: Structural rhythm detector for builds and drops
// ABOUTME: Compares fast and slow loudness envelopes and watches for post-build bass hits
package onset

import (
	"math"
	"time"

	"github.com/echo-haptics/echo-go/pkg/rhythm"
)

// StructureConfig tunes build and drop detection.
type StructureConfig struct {
	FastTau    time.Duration // fast envelope time constant (default 100ms)
	SlowTau    time.Duration // slow envelope time constant (default 4s)
	BuildRatio float64       // fast/slow ratio that counts as rising (default 1.25)
	BuildLevel float64       // minimum fast envelope for a build (default 0.15)
	BuildHold  time.Duration // how long the rise must last (default 1.5s)
	DropRatio  float64       // low band jump that counts as a drop (default 2.5)
	DropLevel  float64       // minimum amplitude for a drop (default 0.5)
	DropWindow time.Duration // how long after a build a drop may follow (default 4s)
	Cooldown   time.Duration // minimum spacing per category (default 2s)
}

// DefaultStructureConfig returns the structure detector defaults.
func DefaultStructureConfig() StructureConfig {
	return StructureConfig{
		FastTau:    100 * time.Millisecond,
		SlowTau:    4 * time.Second,
		BuildRatio: 1.25,
		BuildLevel: 0.15,
		BuildHold:  1500 * time.Millisecond,
		DropRatio:  2.5,
		DropLevel:  0.5,
		DropWindow: 4 * time.Second,
		Cooldown:   2 * time.Second,
	}
}

// StructureDetector emits build and drop events. It is owned by the audio
// callback and is not safe for concurrent use.
type StructureDetector struct {
	cfg StructureConfig

	fast     float64
	slow     float64
	lastTime time.Time

	risingSince time.Time
	buildAt     time.Time
	lastBuild   time.Time
	lastDrop    time.Time
}

// NewStructureDetector creates a structure detector; zero fields take defaults.
func NewStructureDetector(cfg StructureConfig) *StructureDetector {
	d := DefaultStructureConfig()
	if cfg.FastTau <= 0 {
		cfg.FastTau = d.FastTau
	}
	if cfg.SlowTau <= 0 {
		cfg.SlowTau = d.SlowTau
	}
	if cfg.BuildRatio <= 1 {
		cfg.BuildRatio = d.BuildRatio
	}
	if cfg.BuildLevel <= 0 {
		cfg.BuildLevel = d.BuildLevel
	}
	if cfg.BuildHold <= 0 {
		cfg.BuildHold = d.BuildHold
	}
	if cfg.DropRatio <= 1 {
		cfg.DropRatio = d.DropRatio
	}
	if cfg.DropLevel <= 0 {
		cfg.DropLevel = d.DropLevel
	}
	if cfg.DropWindow <= 0 {
		cfg.DropWindow = d.DropWindow
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = d.Cooldown
	}
	return &StructureDetector{cfg: cfg}
}

// Detect updates the envelopes with one block and returns a build or drop
// event when one is recognized.
func (d *StructureDetector) Detect(amplitude, low, prevLow float64, now time.Time) (rhythm.Event, bool) {
	d.track(amplitude, now)

	if !d.buildAt.IsZero() && now.Sub(d.buildAt) > d.cfg.DropWindow {
		d.buildAt = time.Time{}
	}

	if e, ok := d.detectDrop(amplitude, low, prevLow, now); ok {
		return e, true
	}
	return d.detectBuild(now)
}

func (d *StructureDetector) track(amplitude float64, now time.Time) {
	if d.lastTime.IsZero() {
		d.fast = amplitude
		d.slow = amplitude
		d.lastTime = now
		return
	}

	dt := now.Sub(d.lastTime).Seconds()
	d.lastTime = now
	if dt <= 0 {
		return
	}

	d.fast += (amplitude - d.fast) * (1 - math.Exp(-dt/d.cfg.FastTau.Seconds()))
	d.slow += (amplitude - d.slow) * (1 - math.Exp(-dt/d.cfg.SlowTau.Seconds()))
}

func (d *StructureDetector) detectBuild(now time.Time) (rhythm.Event, bool) {
	rising := d.fast >= d.cfg.BuildLevel && d.fast > d.slow*d.cfg.BuildRatio
	if !rising {
		d.risingSince = time.Time{}
		return rhythm.Event{}, false
	}

	if d.risingSince.IsZero() {
		d.risingSince = now
		return rhythm.Event{}, false
	}
	if now.Sub(d.risingSince) < d.cfg.BuildHold || !d.buildAt.IsZero() {
		return rhythm.Event{}, false
	}
	if !d.lastBuild.IsZero() && now.Sub(d.lastBuild) < d.cfg.Cooldown {
		return rhythm.Event{}, false
	}

	d.buildAt = now
	d.lastBuild = now
	return rhythm.Event{
		Time:      now,
		Category:  rhythm.Build,
		Intensity: clamp(d.fast, 0, 1),
	}, true
}

func (d *StructureDetector) detectDrop(amplitude, low, prevLow float64, now time.Time) (rhythm.Event, bool) {
	if d.buildAt.IsZero() || prevLow <= 0 {
		return rhythm.Event{}, false
	}
	if low <= prevLow*d.cfg.DropRatio || amplitude < d.cfg.DropLevel {
		return rhythm.Event{}, false
	}
	if !d.lastDrop.IsZero() && now.Sub(d.lastDrop) < d.cfg.Cooldown {
		return rhythm.Event{}, false
	}

	d.buildAt = time.Time{}
	d.lastDrop = now
	return rhythm.Event{
		Time:      now,
		Category:  rhythm.Drop,
		Intensity: clamp(amplitude, 0, 1),
	}, true
}
