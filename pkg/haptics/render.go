// ABOUTME: Renders haptic patterns to drive audio for tactile transducers
// ABOUTME: Sharpness selects the carrier frequency, intensity the envelope
package haptics

import (
	"math"
	"time"
)

const (
	// Carrier range for sharpness 0..1. Bass shakers respond best low.
	minCarrierHz = 40.0
	maxCarrierHz = 250.0

	transientLength = 15 * time.Millisecond
	transientDecay  = 4 * time.Millisecond
)

// CarrierHz returns the drive frequency for a sharpness value
func CarrierHz(sharpness float64) float64 {
	return minCarrierHz + (maxCarrierHz-minCarrierHz)*clamp(sharpness, 0, 1)
}

// Render synthesizes p as a mono drive signal at sampleRate. dst is reused
// when it has enough capacity.
func Render(p Pattern, sampleRate int, dst []float32) []float32 {
	if sampleRate <= 0 {
		return dst[:0]
	}

	total := p.Duration()
	for _, e := range p.Events {
		if e.Kind == Transient && e.Time+transientLength > total {
			total = e.Time + transientLength
		}
	}

	n := samplesFor(total, sampleRate)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}

	rate := float64(sampleRate)
	for _, e := range p.Events {
		freq := CarrierHz(e.Sharpness)
		start := samplesFor(e.Time, sampleRate)

		switch e.Kind {
		case Transient:
			length := samplesFor(transientLength, sampleRate)
			tau := transientDecay.Seconds() * rate
			for i := 0; i < length && start+i < n; i++ {
				env := e.Intensity * math.Exp(-float64(i)/tau)
				dst[start+i] += float32(env * math.Sin(2*math.Pi*freq*float64(i)/rate))
			}

		case Continuous:
			length := samplesFor(e.Duration, sampleRate)
			for i := 0; i < length && start+i < n; i++ {
				at := e.Time + time.Duration(float64(i)/rate*float64(time.Second))
				env := e.Intensity * p.Curve.At(at)
				dst[start+i] += float32(env * math.Sin(2*math.Pi*freq*float64(i)/rate))
			}
		}
	}

	for i, v := range dst {
		if v > 1 {
			dst[i] = 1
		} else if v < -1 {
			dst[i] = -1
		}
	}
	return dst
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}
