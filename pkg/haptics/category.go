// ABOUTME: Haptic categories and layer textures
// ABOUTME: Maps rhythm categories onto pattern library entries
package haptics

import (
	"fmt"

	"github.com/echo-haptics/echo-go/pkg/rhythm"
)

// Category selects a pattern from the library
type Category uint8

const (
	Kick Category = iota
	Snare
	HiHat
	Build
	Drop
	DeepPulse
	SharpTap
	RapidTexture
	SoftWave
)

var categoryNames = [...]string{
	Kick:         "kick",
	Snare:        "snare",
	HiHat:        "hihat",
	Build:        "build",
	Drop:         "drop",
	DeepPulse:    "deepPulse",
	SharpTap:     "sharpTap",
	RapidTexture: "rapidTexture",
	SoftWave:     "softWave",
}

// String returns the category name
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// ForRhythm returns the library category for a rhythm event category.
func ForRhythm(c rhythm.Category) Category {
	switch c {
	case rhythm.Kick:
		return Kick
	case rhythm.Snare:
		return Snare
	case rhythm.HiHat:
		return HiHat
	case rhythm.Build:
		return Build
	case rhythm.Drop:
		return Drop
	}
	panic(fmt.Sprintf("haptics: unknown rhythm category %d", c))
}

// Texture is a layerable vibration shape
type Texture uint8

const (
	Deep Texture = iota
	Sharp
	Rapid
	Soft
)

// NumTextures is the number of layerable textures
const NumTextures = 4

// Textures lists every texture in display order
func Textures() [NumTextures]Texture {
	return [NumTextures]Texture{Deep, Sharp, Rapid, Soft}
}

// Category returns the library entry used to play the texture
func (t Texture) Category() Category {
	switch t {
	case Deep:
		return DeepPulse
	case Sharp:
		return SharpTap
	case Rapid:
		return RapidTexture
	case Soft:
		return SoftWave
	}
	panic(fmt.Sprintf("haptics: unknown texture %d", t))
}

// String returns the texture's category name
func (t Texture) String() string {
	if t >= NumTextures {
		return fmt.Sprintf("Texture(%d)", t)
	}
	return t.Category().String()
}
