// ABOUTME: Tests for the step sequencer
// ABOUTME: Drives ticks with a fake clock on a real run loop
package sequencer

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/runloop"
	"github.com/jonboulle/clockwork"
)

type recordingPlayer struct {
	mu     sync.Mutex
	played []haptics.Pattern
}

func (r *recordingPlayer) Play(p haptics.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, p)
	return nil
}

func (r *recordingPlayer) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.played)
}

type harness struct {
	t      *testing.T
	seq    *Sequencer
	loop   *runloop.Loop
	clock  clockwork.FakeClock
	player *recordingPlayer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	loop := runloop.New(clock)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	player := &recordingPlayer{}
	return &harness{
		t:      t,
		seq:    New(loop, player, DefaultConfig()),
		loop:   loop,
		clock:  clock,
		player: player,
	}
}

func (h *harness) do(fn func(s *Sequencer)) {
	h.t.Helper()
	if err := h.loop.Do(func() { fn(h.seq) }); err != nil {
		h.t.Fatal(err)
	}
}

// step advances the clock by d and waits for the re-armed tick
func (h *harness) step(d time.Duration) {
	h.clock.BlockUntil(1)
	h.clock.Advance(d)
	h.clock.BlockUntil(1)
}

func (h *harness) current() int {
	var step int
	h.do(func(s *Sequencer) { step = s.CurrentStep() })
	return step
}

func fullPattern(n int) Pattern {
	p, _ := NewPattern(n)
	for i := range p.Steps {
		p.Steps[i] = StepOf(haptics.Deep)
	}
	return p
}

func TestPlayRequiresActivePattern(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		if s.Play() {
			t.Error("expected Play to no-op on an empty pattern")
		}
		if s.IsPlaying() || s.CurrentStep() != -1 {
			t.Error("expected sequencer to stay stopped")
		}

		s.SetPattern(fullPattern(8))
		if !s.Play() {
			t.Fatal("expected Play to start")
		}
		if s.Play() {
			t.Error("expected second Play to no-op")
		}
		if s.CurrentStep() != 0 {
			t.Errorf("expected step 0 to play immediately, got %d", s.CurrentStep())
		}
	})

	if h.player.len() != 1 {
		t.Errorf("expected one immediate play, got %d", h.player.len())
	}
}

func TestTicksAdvanceCursor(t *testing.T) {
	h := newHarness(t)

	var steps []int
	h.do(func(s *Sequencer) {
		s.OnStep = func(i int) { steps = append(steps, i) }
		s.SetPattern(fullPattern(8))
		s.Play()
	})

	for i := 0; i < 9; i++ {
		h.step(500 * time.Millisecond)
	}

	h.do(func(s *Sequencer) {
		want := []int{0, 1, 2, 3, 4, 5, 6, 7, 0, 1}
		if len(steps) != len(want) {
			t.Fatalf("expected steps %v, got %v", want, steps)
		}
		for i := range want {
			if steps[i] != want[i] {
				t.Fatalf("expected steps %v, got %v", want, steps)
			}
		}
	})
}

func TestTempoChangeKeepsStep(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		s.SetPattern(fullPattern(16))
		s.Play()
	})
	for i := 0; i < 4; i++ {
		h.step(500 * time.Millisecond)
	}
	if got := h.current(); got != 4 {
		t.Fatalf("expected step 4 after four ticks, got %d", got)
	}

	h.do(func(s *Sequencer) { s.SetTempo(60) })
	if got := h.current(); got != 4 {
		t.Errorf("expected tempo change to keep step 4, got %d", got)
	}

	h.clock.BlockUntil(1)
	h.clock.Advance(999 * time.Millisecond)
	if got := h.current(); got != 4 {
		t.Errorf("expected no tick before 1s, got step %d", got)
	}

	h.clock.Advance(time.Millisecond)
	h.clock.BlockUntil(1)
	if got := h.current(); got != 5 {
		t.Errorf("expected step 5 one second after the tempo change, got %d", got)
	}
}

func TestTempoClamped(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		in, want float64
	}{
		{5, 20},
		{20, 20},
		{128, 128},
		{1000, 300},
		{math.NaN(), 120},
	}
	for _, tt := range tests {
		h.do(func(s *Sequencer) {
			s.SetTempo(tt.in)
			if s.Tempo() != tt.want {
				t.Errorf("SetTempo(%f): expected %f, got %f", tt.in, tt.want, s.Tempo())
			}
		})
	}
}

func TestStepCountGrowWhilePlaying(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		s.SetPattern(fullPattern(8))
		s.Play()
	})
	for i := 0; i < 6; i++ {
		h.step(500 * time.Millisecond)
	}
	if got := h.current(); got != 6 {
		t.Fatalf("expected step 6, got %d", got)
	}

	h.do(func(s *Sequencer) { s.SetPattern(fullPattern(16)) })

	for i := 0; i < 12; i++ {
		h.step(500 * time.Millisecond)
		if got := h.current(); got < 0 || got >= 16 {
			t.Fatalf("step %d out of range", got)
		}
	}
	if got := h.current(); got != 18%16 {
		t.Errorf("expected playback to run through 16 steps, got step %d", got)
	}
}

func TestStepCountShrinkWhilePlaying(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		s.SetPattern(fullPattern(16))
		s.Play()
	})
	for i := 0; i < 12; i++ {
		h.step(500 * time.Millisecond)
	}

	h.do(func(s *Sequencer) {
		s.SetPattern(fullPattern(8))
		if got := s.CurrentStep(); got < 0 || got >= 8 {
			t.Errorf("expected cursor to wrap immediately, got %d", got)
		}
	})

	for i := 0; i < 10; i++ {
		h.step(500 * time.Millisecond)
		if got := h.current(); got < 0 || got >= 8 {
			t.Fatalf("step %d out of range after shrink", got)
		}
	}
}

func TestStopCancelsTicks(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		s.SetPattern(fullPattern(8))
		s.Play()
	})
	h.step(500 * time.Millisecond)
	h.do(func(s *Sequencer) { s.Stop() })

	played := h.player.len()
	h.clock.Advance(10 * time.Second)
	h.do(func(s *Sequencer) {
		if s.IsPlaying() || s.CurrentStep() != -1 {
			t.Error("expected stopped state")
		}
	})
	if h.player.len() != played {
		t.Errorf("expected no plays after Stop, got %d more", h.player.len()-played)
	}

	h.do(func(s *Sequencer) {
		s.Play()
		if s.CurrentStep() != 0 {
			t.Errorf("expected restart from step 0, got %d", s.CurrentStep())
		}
	})
}

func TestSwing(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		s.SetShiftOffset(0.2)
		s.SetShifted(true)
		s.SetPattern(fullPattern(8))
		s.Play()
	})

	// even to odd: 500ms + 100ms
	h.clock.BlockUntil(1)
	h.clock.Advance(599 * time.Millisecond)
	if got := h.current(); got != 0 {
		t.Fatalf("expected lengthened even step, got %d", got)
	}
	h.clock.Advance(time.Millisecond)
	h.clock.BlockUntil(1)
	if got := h.current(); got != 1 {
		t.Fatalf("expected step 1 at 600ms, got %d", got)
	}

	// odd to even: 500ms - 100ms
	h.step(400 * time.Millisecond)
	if got := h.current(); got != 2 {
		t.Errorf("expected step 2 at 1000ms, got %d", got)
	}
}

func TestShiftOffsetClamped(t *testing.T) {
	h := newHarness(t)
	h.do(func(s *Sequencer) {
		s.SetShiftOffset(0.9)
		if s.ShiftOffset() != MaxShift {
			t.Errorf("expected %f, got %f", MaxShift, s.ShiftOffset())
		}
		s.SetShiftOffset(-1)
		if s.ShiftOffset() != 0 {
			t.Errorf("expected 0, got %f", s.ShiftOffset())
		}
	})
}

func TestStepTexturesPlayTogetherScaled(t *testing.T) {
	h := newHarness(t)

	h.do(func(s *Sequencer) {
		p, _ := NewPattern(8)
		p.Steps[0] = StepOf(haptics.Deep, haptics.Sharp)
		s.SetPattern(p)
		s.Play()
	})

	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	if len(h.player.played) != 2 {
		t.Fatalf("expected two simultaneous textures, got %d", len(h.player.played))
	}
	want := 0.7 * 0.8 * 0.85
	if got := h.player.played[0].PeakIntensity(); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected deep peak %f, got %f", want, got)
	}
}

func TestIntervalStepsPerMeasure(t *testing.T) {
	tests := []struct {
		steps int
		tempo float64
		want  time.Duration
	}{
		{4, 60, time.Second},
		{4, 120, 500 * time.Millisecond},
		{16, 120, 125 * time.Millisecond},
		{8, 90, time.Second / 3},
	}
	for _, tt := range tests {
		s := New(nil, nil, Config{StepsPerMeasure: tt.steps, Tempo: tt.tempo})
		if got := s.Interval(); got != tt.want {
			t.Errorf("steps=%d tempo=%.0f: expected %v, got %v", tt.steps, tt.tempo, tt.want, got)
		}
	}
}
