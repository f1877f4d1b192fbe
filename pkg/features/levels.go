// ABOUTME: Lock-free latest-value slot for amplitude and fine bands
// ABOUTME: Single-producer seqlock written by the audio callback
package features

import (
	"math"
	"runtime"
	"sync/atomic"
)

// Snapshot is a consistent copy of the latest published levels.
type Snapshot struct {
	Seq        uint64
	Amplitude  float64
	Bands      [NumFineBands]float64
	SpectralOK bool
}

// Levels holds the most recent amplitude and band values. Store must only be
// called from one goroutine (the audio callback); Load may be called from
// any goroutine. Neither side allocates or locks.
type Levels struct {
	seq       atomic.Uint64
	amplitude atomic.Uint64
	bands     [NumFineBands]atomic.Uint64
	spectral  atomic.Bool
}

// Store publishes r, overwriting the previous value.
func (l *Levels) Store(r Result) {
	l.seq.Add(1) // odd: write in progress
	l.amplitude.Store(math.Float64bits(r.Amplitude))
	for i := range l.bands {
		v := 0.0
		if i < len(r.Bands) {
			v = r.Bands[i]
		}
		l.bands[i].Store(math.Float64bits(v))
	}
	l.spectral.Store(r.SpectralOK)
	l.seq.Add(1)
}

// Load returns the latest consistent snapshot. Seq is zero until the first
// Store and increases with every Store.
func (l *Levels) Load() Snapshot {
	for {
		start := l.seq.Load()
		if start&1 == 1 {
			runtime.Gosched()
			continue
		}

		var s Snapshot
		s.Amplitude = math.Float64frombits(l.amplitude.Load())
		for i := range l.bands {
			s.Bands[i] = math.Float64frombits(l.bands[i].Load())
		}
		s.SpectralOK = l.spectral.Load()

		if l.seq.Load() == start {
			s.Seq = start / 2
			return s
		}
	}
}
