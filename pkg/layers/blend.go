// ABOUTME: Layer blending math
// ABOUTME: Count and global intensity scales plus the blended texture color
package layers

import (
	"math"

	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// MaxPerTexture caps how many layers of one texture can stack
	MaxPerTexture = 3

	// MaxTotal caps the number of layers across all textures
	MaxTotal = 8

	// BaseIntensity is the library intensity before layer scaling. With
	// three stacked layers it reaches 0.96.
	BaseIntensity = 0.6
)

var (
	// Baseline is the color shown with no layers
	Baseline = colorful.Color{R: 1, G: 1, B: 1}

	baseColors = [haptics.NumTextures]colorful.Color{
		haptics.Deep:  {R: 0, G: 0, B: 1},
		haptics.Sharp: {R: 1, G: 1, B: 0},
		haptics.Rapid: {R: 0.5, G: 0, B: 1},
		haptics.Soft:  {R: 0, G: 1, B: 0},
	}
)

// BaseColor returns the fixed color of a texture
func BaseColor(t haptics.Texture) colorful.Color {
	mustTexture(t)
	return baseColors[t]
}

// CountScale boosts a texture with stacked layers
func CountScale(count int) float64 {
	switch {
	case count <= 1:
		return 1.0
	case count == 2:
		return 1.3
	default:
		return 1.6
	}
}

// GlobalScale attenuates overlapping distinct textures. A single texture is
// never attenuated.
func GlobalScale(distinct int) float64 {
	switch {
	case distinct <= 1:
		return 1.0
	case distinct == 2:
		return 0.85
	case distinct == 3:
		return 0.75
	default:
		return 0.65
	}
}

// Appearance is the visual state derived from the layer counts
type Appearance struct {
	Color         colorful.Color
	GlowIntensity float64
}

// Hex returns the blended color as #rrggbb
func (a Appearance) Hex() string {
	return a.Color.Clamped().Hex()
}

// Blend computes the appearance for the given per-texture counts.
func Blend(counts [haptics.NumTextures]int) Appearance {
	total := 0
	var r, g, b float64
	for t, n := range counts {
		if n <= 0 {
			continue
		}
		c := baseColors[t]
		r += c.R * float64(n)
		g += c.G * float64(n)
		b += c.B * float64(n)
		total += n
	}

	if total == 0 {
		return Appearance{Color: Baseline, GlowIntensity: glow(0)}
	}

	color := colorful.Color{R: r / float64(total), G: g / float64(total), B: b / float64(total)}
	if peak := math.Max(color.R, math.Max(color.G, color.B)); peak > 1 {
		color = colorful.Color{R: color.R / peak, G: color.G / peak, B: color.B / peak}
	}

	return Appearance{Color: color, GlowIntensity: glow(total)}
}

func glow(total int) float64 {
	return math.Min(0.3+0.08*float64(total), 0.7)
}
