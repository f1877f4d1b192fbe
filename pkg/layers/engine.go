// ABOUTME: Layer engine stacking looping haptic textures
// ABOUTME: Bounded per-texture counters drive appearance and looping players
package layers

import (
	"fmt"
	"log"

	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/runloop"
)

// Player plays one pattern. *haptics.Service satisfies it.
type Player interface {
	Play(p haptics.Pattern) error
}

// Engine tracks stacked texture layers. Every method must be called on the
// run loop that owns it.
type Engine struct {
	loop   *runloop.Loop
	player Player

	counts     [haptics.NumTextures]int
	total      int
	appearance Appearance
	tickers    [haptics.NumTextures]*runloop.Ticker

	// generation is bumped by every restartPlayers call
	generation uint64

	// OnChange is called after every rebuild with the new appearance
	OnChange func(Appearance)
}

// New creates an empty engine playing through player.
func New(loop *runloop.Loop, player Player) *Engine {
	return &Engine{
		loop:       loop,
		player:     player,
		appearance: Blend([haptics.NumTextures]int{}),
	}
}

// Add stacks one layer of t. It reports false when t or the total is at
// its cap.
func (e *Engine) Add(t haptics.Texture) bool {
	mustTexture(t)
	if e.counts[t] >= MaxPerTexture || e.total >= MaxTotal {
		return false
	}
	e.counts[t]++
	e.total++
	e.rebuild()
	return true
}

// Remove drops one layer of t. It reports false when t has no layers.
func (e *Engine) Remove(t haptics.Texture) bool {
	mustTexture(t)
	if e.counts[t] == 0 {
		return false
	}
	e.counts[t]--
	e.total--
	e.rebuild()
	return true
}

// Clear drops every layer
func (e *Engine) Clear() {
	e.counts = [haptics.NumTextures]int{}
	e.total = 0
	e.rebuild()
}

// Restart re-synthesizes and restarts every active layer. It is registered
// as a haptic service restart listener.
func (e *Engine) Restart() {
	if e.total == 0 {
		return
	}
	log.Printf("layers: restarting %d active layers", e.total)
	e.restartPlayers()
}

// Stop halts all looping players without touching the counters
func (e *Engine) Stop() {
	for i, tk := range e.tickers {
		tk.Stop()
		e.tickers[i] = nil
	}
}

// Appearance returns the current blended appearance
func (e *Engine) Appearance() Appearance {
	return e.appearance
}

// Count returns the number of layers of t
func (e *Engine) Count(t haptics.Texture) int {
	mustTexture(t)
	return e.counts[t]
}

// Counts returns every texture's layer count
func (e *Engine) Counts() [haptics.NumTextures]int {
	return e.counts
}

// Total returns the number of layers across all textures
func (e *Engine) Total() int {
	return e.total
}

// Distinct returns the number of textures with at least one layer
func (e *Engine) Distinct() int {
	n := 0
	for _, c := range e.counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Intensity returns the base intensity a texture is currently played at
func (e *Engine) Intensity(t haptics.Texture) float64 {
	if e.counts[t] == 0 {
		return 0
	}
	v := BaseIntensity * CountScale(e.counts[t]) * GlobalScale(e.Distinct())
	if v > 1 {
		v = 1
	}
	return v
}

// rebuild recomputes the appearance before touching players so visuals
// update even when playback fails.
func (e *Engine) rebuild() {
	e.appearance = Blend(e.counts)
	if e.OnChange != nil {
		e.OnChange(e.appearance)
	}
	e.restartPlayers()
}

// restartPlayers may re-enter itself through a service restart listener.
// The nested call then owns the tickers and the outer call stops.
func (e *Engine) restartPlayers() {
	e.Stop()
	e.generation++
	gen := e.generation

	for _, t := range haptics.Textures() {
		if e.counts[t] == 0 {
			continue
		}
		p := haptics.Synthesize(t.Category(), e.Intensity(t))
		tex := t
		e.play(tex, p)
		if e.generation != gen {
			return
		}
		e.tickers[t] = e.loop.NewTicker(p.Duration(), func() {
			e.play(tex, p)
		})
	}
}

func (e *Engine) play(t haptics.Texture, p haptics.Pattern) {
	if err := e.player.Play(p); err != nil {
		log.Printf("layers: %s playback failed: %v", t, err)
	}
}

func mustTexture(t haptics.Texture) {
	if t >= haptics.NumTextures {
		panic(fmt.Sprintf("layers: unknown texture %d", t))
	}
}
