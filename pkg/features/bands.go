// ABOUTME: Frequency band layout for the feature extractor
// ABOUTME: Maps coarse and fine band edges in Hz to FFT bin ranges
package features

import "math"

const (
	// NumFineBands is the number of visualization bands.
	NumFineBands = 24

	lowBandHz  = 20.0
	midBandHz  = 150.0
	highBandHz = 2500.0
)

// Coarse holds the mean magnitude of the three classification bands.
type Coarse struct {
	Low  float64
	Mid  float64
	High float64
}

// Sum returns Low+Mid+High.
func (c Coarse) Sum() float64 {
	return c.Low + c.Mid + c.High
}

// binRange is a half-open range [lo, hi) of FFT bins.
type binRange struct {
	lo int
	hi int
}

// mean returns the mean magnitude over the range.
func (r binRange) mean(mags []float64) float64 {
	if r.hi <= r.lo {
		return 0
	}
	sum := 0.0
	for _, m := range mags[r.lo:r.hi] {
		sum += m
	}
	return sum / float64(r.hi-r.lo)
}

// layout holds every band's bin range for one (sample rate, FFT size) pair.
type layout struct {
	low  binRange
	mid  binRange
	high binRange
	fine [NumFineBands]binRange
}

// newLayout computes band ranges once from Nyquist. Every band owns at least
// one bin.
func newLayout(sampleRate, fftSize int) layout {
	binHz := float64(sampleRate) / float64(fftSize)
	nyquist := float64(sampleRate) / 2
	lastBin := fftSize / 2

	var l layout
	l.low = rangeFor(lowBandHz, midBandHz, binHz, lastBin)
	l.mid = rangeFor(midBandHz, highBandHz, binHz, lastBin)
	l.high = rangeFor(highBandHz, nyquist, binHz, lastBin)

	width := (nyquist - lowBandHz) / NumFineBands
	for i := range l.fine {
		lo := lowBandHz + float64(i)*width
		l.fine[i] = rangeFor(lo, lo+width, binHz, lastBin)
	}
	return l
}

func rangeFor(loHz, hiHz, binHz float64, lastBin int) binRange {
	lo := int(math.Ceil(loHz / binHz))
	hi := int(math.Ceil(hiHz / binHz))
	if hiHz >= binHz*float64(lastBin) {
		hi = lastBin + 1
	}

	if lo < 1 {
		lo = 1
	}
	if lo > lastBin {
		lo = lastBin
	}
	if hi > lastBin+1 {
		hi = lastBin + 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return binRange{lo: lo, hi: hi}
}
