// ABOUTME: Pattern library mapping categories to canonical vibrations
// ABOUTME: Pure synthesis; base intensity scales intensity but never sharpness
package haptics

import (
	"fmt"
	"math"
	"time"
)

// Synthesize builds the pattern for category c. baseIntensity is clamped to
// [0, 1]. An unknown category panics.
func Synthesize(c Category, baseIntensity float64) Pattern {
	s := clamp(baseIntensity, 0, 1)

	switch c {
	case Kick:
		return single(c, 80*time.Millisecond, 1.0*s, 0.8)
	case Snare:
		return single(c, 120*time.Millisecond, 0.6*s, 0.7)
	case HiHat:
		return single(c, 30*time.Millisecond, 0.3*s, 1.0)

	case Build:
		length := 1200 * time.Millisecond
		return Pattern{
			Category: c,
			Length:   length,
			Events: []Event{
				{Kind: Continuous, Duration: length, Intensity: 1.0 * s, Sharpness: 0.5},
			},
			Curve: Curve{{0, 0.2}, {length, 1.0}},
		}

	case Drop:
		p := Pattern{Category: c, Length: 160 * time.Millisecond}
		levels := [3]float64{1.0, 0.9, 0.8}
		sharp := [3]float64{0.4, 0.7, 0.9}
		for i := range levels {
			p.Events = append(p.Events, Event{
				Kind:      Transient,
				Time:      time.Duration(i) * 80 * time.Millisecond,
				Intensity: levels[i] * s,
				Sharpness: sharp[i],
			})
		}
		return p

	case DeepPulse:
		length := 250 * time.Millisecond
		return Pattern{
			Category: c,
			Length:   length,
			Events: []Event{
				{Kind: Continuous, Duration: length, Intensity: 0.7 * s, Sharpness: 0.2},
			},
			Curve: Curve{{0, 0}, {60 * time.Millisecond, 1}, {190 * time.Millisecond, 1}, {length, 0}},
		}

	case SharpTap:
		length := 60 * time.Millisecond
		return Pattern{
			Category: c,
			Length:   length,
			Events: []Event{
				{Kind: Continuous, Duration: length, Intensity: 0.9 * s, Sharpness: 0.95},
			},
			Curve: Curve{{0, 0}, {5 * time.Millisecond, 1}, {length, 0}},
		}

	case RapidTexture:
		p := Pattern{Category: c, Length: 150 * time.Millisecond}
		for i := 0; i < 5; i++ {
			p.Events = append(p.Events, Event{
				Kind:      Transient,
				Time:      time.Duration(i) * 30 * time.Millisecond,
				Intensity: 0.4 * s,
				Sharpness: 0.8,
			})
		}
		return p

	case SoftWave:
		length := 500 * time.Millisecond
		return Pattern{
			Category: c,
			Length:   length,
			Events: []Event{
				{Kind: Continuous, Duration: length, Intensity: 0.3 * s, Sharpness: 0.1},
			},
			Curve: Curve{{0, 0}, {length / 2, 1}, {length, 0}},
		}
	}

	panic(fmt.Sprintf("haptics: unknown category %d", c))
}

// single is a one-shot continuous event spanning the whole pattern
func single(c Category, length time.Duration, intensity, sharpness float64) Pattern {
	return Pattern{
		Category: c,
		Length:   length,
		Events: []Event{
			{Kind: Continuous, Duration: length, Intensity: intensity, Sharpness: sharpness},
		},
	}
}

// CanonicalPeak returns the peak intensity of c at full base intensity
func CanonicalPeak(c Category) float64 {
	return Synthesize(c, 1).PeakIntensity()
}

func clamp(v, minVal, maxVal float64) float64 {
	if math.IsNaN(v) {
		return minVal
	}
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
