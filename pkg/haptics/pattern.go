// ABOUTME: Haptic pattern data model
// ABOUTME: Primitive vibration events plus an optional intensity curve
package haptics

import "time"

// Kind distinguishes a single tap from a sustained vibration
type Kind uint8

const (
	Transient Kind = iota
	Continuous
)

// Event is one primitive vibration, timed relative to the pattern start.
type Event struct {
	Kind      Kind
	Time      time.Duration
	Duration  time.Duration // zero for transients
	Intensity float64
	Sharpness float64
}

// CurvePoint is a control point of an intensity curve
type CurvePoint struct {
	Time  time.Duration
	Value float64
}

// Curve multiplies the intensity of continuous events over time. Values are
// linearly interpolated between points and held flat outside them.
type Curve []CurvePoint

// At returns the curve value at t.
func (c Curve) At(t time.Duration) float64 {
	if len(c) == 0 {
		return 1
	}
	if t <= c[0].Time {
		return c[0].Value
	}
	for i := 1; i < len(c); i++ {
		if t <= c[i].Time {
			a, b := c[i-1], c[i]
			span := b.Time - a.Time
			if span <= 0 {
				return b.Value
			}
			frac := float64(t-a.Time) / float64(span)
			return a.Value + (b.Value-a.Value)*frac
		}
	}
	return c[len(c)-1].Value
}

// Max returns the largest control value, or 1 for an empty curve
func (c Curve) Max() float64 {
	if len(c) == 0 {
		return 1
	}
	m := c[0].Value
	for _, p := range c[1:] {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}

// Pattern is a fully specified vibration. It is pure data and is consumed
// once by an Engine.
type Pattern struct {
	Category Category
	Length   time.Duration
	Events   []Event
	Curve    Curve
}

// Duration returns the canonical length of the pattern.
func (p Pattern) Duration() time.Duration {
	if p.Length > 0 {
		return p.Length
	}
	var end time.Duration
	for _, e := range p.Events {
		if t := e.Time + e.Duration; t > end {
			end = t
		}
	}
	return end
}

// PeakIntensity returns the strongest intensity the pattern can reach.
func (p Pattern) PeakIntensity() float64 {
	peak := 0.0
	for _, e := range p.Events {
		v := e.Intensity
		if e.Kind == Continuous {
			v *= p.Curve.Max()
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// IntensityAt returns the envelope of event e at pattern time t, or zero
// when the event is not sounding.
func (p Pattern) IntensityAt(e Event, t time.Duration) float64 {
	if e.Kind == Transient {
		if t != e.Time {
			return 0
		}
		return e.Intensity
	}
	if t < e.Time || t > e.Time+e.Duration {
		return 0
	}
	return e.Intensity * p.Curve.At(t)
}
