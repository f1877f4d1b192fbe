// ABOUTME: Tempo-driven step sequencer for haptic textures
// ABOUTME: Live-editable pattern and tempo, ticking on the run loop
package sequencer

import (
	"log"
	"math"
	"time"

	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/runloop"
)

const (
	MinTempo = 20.0
	MaxTempo = 300.0

	// MaxShift is the largest swing offset, as a fraction of a step
	MaxShift = 0.5
)

// Config configures a Sequencer
type Config struct {
	// Tempo in beats per minute (default 120)
	Tempo float64

	// StepsPerMeasure sets the step length in 4/4: 4 is one step per beat,
	// 16 is sixteenth notes (default 4)
	StepsPerMeasure int

	// StepIntensity is the library intensity before global scaling
	// (default 0.8)
	StepIntensity float64
}

// DefaultConfig returns sequencer defaults
func DefaultConfig() Config {
	return Config{
		Tempo:           120,
		StepsPerMeasure: 4,
		StepIntensity:   0.8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Tempo <= 0 {
		c.Tempo = d.Tempo
	}
	if c.StepsPerMeasure <= 0 {
		c.StepsPerMeasure = d.StepsPerMeasure
	}
	if c.StepIntensity <= 0 {
		c.StepIntensity = d.StepIntensity
	}
	return c
}

// Sequencer plays a step pattern. Every method must be called on the run
// loop that owns it.
type Sequencer struct {
	loop   *runloop.Loop
	player layers.Player
	cfg    Config

	pattern Pattern
	tempo   float64
	shift   float64
	shifted bool

	playing  bool
	cursor   int // next step to play
	playhead int // last step played
	timer    *runloop.Timer

	// OnStep is called after each step is played
	OnStep func(step int)
}

// New creates a stopped sequencer with an empty 8-step pattern.
func New(loop *runloop.Loop, player layers.Player, cfg Config) *Sequencer {
	cfg = cfg.withDefaults()
	p, _ := NewPattern(8)
	return &Sequencer{
		loop:     loop,
		player:   player,
		cfg:      cfg,
		pattern:  p,
		tempo:    clampTempo(cfg.Tempo),
		playhead: -1,
	}
}

// Play starts playback from step 0. It reports false when already playing
// or when the pattern has no active steps.
func (s *Sequencer) Play() bool {
	if s.playing || !s.pattern.Active() {
		return false
	}
	s.playing = true
	s.cursor = 0
	log.Printf("sequencer: playing %d steps at %.0f bpm", s.pattern.Len(), s.tempo)
	s.tick()
	return true
}

// Stop cancels playback and resets the cursor
func (s *Sequencer) Stop() {
	if !s.playing {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.playing = false
	s.cursor = 0
	s.playhead = -1
	log.Printf("sequencer: stopped")
}

// SetTempo changes the tempo, clamped to [20, 300] bpm. While playing the
// pending tick is replaced by one a full new interval from now.
func (s *Sequencer) SetTempo(bpm float64) {
	s.tempo = clampTempo(bpm)
	if s.playing {
		s.timer.Stop()
		s.schedule()
	}
}

// SetPattern replaces the pattern. It takes effect on the next tick; the
// cursor wraps if the pattern shrank.
func (s *Sequencer) SetPattern(p Pattern) {
	s.pattern = p.Clone()
	if n := s.pattern.Len(); n > 0 {
		s.cursor %= n
		if s.playhead >= n {
			s.playhead %= n
		}
	} else {
		s.cursor = 0
	}
}

// SetShiftOffset sets the swing amount as a fraction of a step, clamped to
// [0, 0.5].
func (s *Sequencer) SetShiftOffset(f float64) {
	switch {
	case f < 0 || math.IsNaN(f):
		f = 0
	case f > MaxShift:
		f = MaxShift
	}
	s.shift = f
}

// SetShifted enables or disables swing
func (s *Sequencer) SetShifted(on bool) {
	s.shifted = on
}

// IsPlaying reports whether the sequencer is running
func (s *Sequencer) IsPlaying() bool {
	return s.playing
}

// CurrentStep returns the last step played, or -1 when stopped
func (s *Sequencer) CurrentStep() int {
	if !s.playing {
		return -1
	}
	return s.playhead
}

// Tempo returns the tempo in bpm
func (s *Sequencer) Tempo() float64 {
	return s.tempo
}

// ShiftOffset returns the swing amount
func (s *Sequencer) ShiftOffset() float64 {
	return s.shift
}

// Shifted reports whether swing is enabled
func (s *Sequencer) Shifted() bool {
	return s.shifted
}

// Pattern returns a copy of the current pattern
func (s *Sequencer) Pattern() Pattern {
	return s.pattern.Clone()
}

// Interval returns the unswung step length at the current tempo
func (s *Sequencer) Interval() time.Duration {
	beats := 4.0 / float64(s.cfg.StepsPerMeasure)
	return time.Duration(60.0 / s.tempo * beats * float64(time.Second))
}

// nextInterval returns the wait after playing step i
func (s *Sequencer) nextInterval(i int) time.Duration {
	base := s.Interval()
	if !s.shifted || s.shift == 0 {
		return base
	}
	swing := time.Duration(s.shift * float64(base))
	if i%2 == 0 {
		return base + swing
	}
	return base - swing
}

func (s *Sequencer) tick() {
	if !s.playing {
		return
	}
	n := s.pattern.Len()
	if n == 0 {
		s.Stop()
		return
	}

	i := s.cursor % n
	s.playStep(s.pattern.Steps[i])
	s.playhead = i
	s.cursor = (i + 1) % n

	if s.OnStep != nil {
		s.OnStep(i)
	}
	s.schedule()
}

func (s *Sequencer) schedule() {
	s.timer = s.loop.AfterFunc(s.nextInterval(s.playhead), s.tick)
}

// playStep plays every texture on the step at once, attenuated by the
// number of textures sharing it.
func (s *Sequencer) playStep(step Step) {
	textures := step.Textures()
	if len(textures) == 0 {
		return
	}
	intensity := s.cfg.StepIntensity * layers.GlobalScale(len(textures))
	for _, t := range textures {
		if err := s.player.Play(haptics.Synthesize(t.Category(), intensity)); err != nil {
			log.Printf("sequencer: %s playback failed: %v", t, err)
		}
	}
}

func clampTempo(bpm float64) float64 {
	switch {
	case math.IsNaN(bpm):
		return DefaultConfig().Tempo
	case bpm < MinTempo:
		return MinTempo
	case bpm > MaxTempo:
		return MaxTempo
	}
	return bpm
}
