// ABOUTME: Step patterns for the haptic sequencer
// ABOUTME: Fixed-length grids of texture sets with editing helpers
package sequencer

import (
	"errors"
	"fmt"

	"github.com/echo-haptics/echo-go/pkg/haptics"
)

// ErrLength is returned for pattern lengths other than 8 or 16.
var ErrLength = errors.New("sequencer: pattern length must be 8 or 16")

// Step is the set of textures played together on one step.
type Step uint8

// StepOf builds a step from textures
func StepOf(textures ...haptics.Texture) Step {
	var s Step
	for _, t := range textures {
		s = s.With(t)
	}
	return s
}

// Has reports whether t plays on this step
func (s Step) Has(t haptics.Texture) bool {
	return s&bit(t) != 0
}

// With returns s plus t
func (s Step) With(t haptics.Texture) Step {
	return s | bit(t)
}

// Without returns s minus t
func (s Step) Without(t haptics.Texture) Step {
	return s &^ bit(t)
}

// Len returns the number of textures on the step
func (s Step) Len() int {
	n := 0
	for _, t := range haptics.Textures() {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Empty reports whether nothing plays on the step
func (s Step) Empty() bool {
	return s == 0
}

// Textures lists the step's textures in display order
func (s Step) Textures() []haptics.Texture {
	var out []haptics.Texture
	for _, t := range haptics.Textures() {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func bit(t haptics.Texture) Step {
	if t >= haptics.NumTextures {
		panic(fmt.Sprintf("sequencer: unknown texture %d", t))
	}
	return 1 << t
}

// Pattern is a fixed-length sequence of steps.
type Pattern struct {
	Steps []Step
}

// NewPattern creates an empty pattern with n steps.
func NewPattern(n int) (Pattern, error) {
	if n != 8 && n != 16 {
		return Pattern{}, fmt.Errorf("%w: got %d", ErrLength, n)
	}
	return Pattern{Steps: make([]Step, n)}, nil
}

// Len returns the number of steps
func (p Pattern) Len() int {
	return len(p.Steps)
}

// Active reports whether any step plays something
func (p Pattern) Active() bool {
	for _, s := range p.Steps {
		if !s.Empty() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (p Pattern) Clone() Pattern {
	steps := make([]Step, len(p.Steps))
	copy(steps, p.Steps)
	return Pattern{Steps: steps}
}

// Toggle flips texture t on step i. Out of range steps are ignored.
func (p Pattern) Toggle(i int, t haptics.Texture) {
	if i < 0 || i >= len(p.Steps) {
		return
	}
	if p.Steps[i].Has(t) {
		p.Steps[i] = p.Steps[i].Without(t)
	} else {
		p.Steps[i] = p.Steps[i].With(t)
	}
}

// Cycle advances step i to the next cell in the grid cycle.
func (p Pattern) Cycle(i int) {
	if i < 0 || i >= len(p.Steps) {
		return
	}
	p.Steps[i] = CellOf(p.Steps[i]).Next().Step()
}

// Resize changes the step count, keeping existing steps and padding with
// empty ones.
func (p *Pattern) Resize(n int) error {
	if n != 8 && n != 16 {
		return fmt.Errorf("%w: got %d", ErrLength, n)
	}
	steps := make([]Step, n)
	copy(steps, p.Steps)
	p.Steps = steps
	return nil
}

// Cell is the single-texture state a grid cell cycles through.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellDeep
	CellSharp
	CellRapid
	CellSoft
)

var nextCell = [...]Cell{
	CellEmpty: CellDeep,
	CellDeep:  CellSharp,
	CellSharp: CellRapid,
	CellRapid: CellSoft,
	CellSoft:  CellEmpty,
}

var cellTexture = [...]haptics.Texture{
	CellDeep:  haptics.Deep,
	CellSharp: haptics.Sharp,
	CellRapid: haptics.Rapid,
	CellSoft:  haptics.Soft,
}

// Next returns the successor cell
func (c Cell) Next() Cell {
	return nextCell[c]
}

// Step returns the step holding only this cell's texture
func (c Cell) Step() Step {
	if c == CellEmpty {
		return 0
	}
	return StepOf(cellTexture[c])
}

// CellOf returns the cell for a step. Steps with more than one texture map
// to the last cell so that cycling clears them.
func CellOf(s Step) Cell {
	switch s.Len() {
	case 0:
		return CellEmpty
	case 1:
		for c := CellDeep; c <= CellSoft; c++ {
			if s.Has(cellTexture[c]) {
				return c
			}
		}
	}
	return CellSoft
}
