// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling against a fake controller, and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
)

type fakeController struct {
	toggles   int
	stops     int
	volume    int
	muted     bool
	added     []haptics.Texture
	removed   []haptics.Texture
	cleared   int
	previewed []haptics.Category
	auto      bool
	patterns  []sequencer.Pattern
	tempo     float64
	shift     float64
	shifted   bool
	sequences int
	seqStops  int
}

func (f *fakeController) TogglePlayback() error {
	f.toggles++
	return nil
}

func (f *fakeController) StopPlayback()          { f.stops++ }
func (f *fakeController) SetVolume(v int)        { f.volume = v }
func (f *fakeController) SetMuted(m bool)        { f.muted = m }
func (f *fakeController) ClearLayers()           { f.cleared++ }
func (f *fakeController) SetAutoHaptics(on bool) { f.auto = on }

func (f *fakeController) AddLayer(t haptics.Texture) bool {
	f.added = append(f.added, t)
	return true
}

func (f *fakeController) RemoveLayer(t haptics.Texture) bool {
	f.removed = append(f.removed, t)
	return true
}

func (f *fakeController) PlayTexture(c haptics.Category, intensity float64) error {
	f.previewed = append(f.previewed, c)
	return nil
}

func (f *fakeController) SetPattern(p sequencer.Pattern) {
	f.patterns = append(f.patterns, p)
}

func (f *fakeController) SetTempo(bpm float64)     { f.tempo = bpm }
func (f *fakeController) SetShiftOffset(v float64) { f.shift = v }
func (f *fakeController) SetShifted(on bool)       { f.shifted = on }
func (f *fakeController) StopSequence()            { f.seqStops++ }

func (f *fakeController) PlaySequence() bool {
	f.sequences++
	return true
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.state != "idle" {
		t.Errorf("expected idle state, got %q", model.state)
	}
	if !model.auto {
		t.Error("expected auto haptics on by default")
	}
	if model.pattern.Len() != 8 {
		t.Errorf("expected an 8-step pattern, got %d", model.pattern.Len())
	}
	if model.step != -1 {
		t.Errorf("expected no playhead, got %d", model.step)
	}
	if len(model.presets) != len(sequencer.Presets()) {
		t.Errorf("expected every preset listed, got %v", model.presets)
	}
}

func TestApplyStatus(t *testing.T) {
	model := NewModel(nil)

	ev := rhythm.Event{Seq: 7, Category: rhythm.Kick, Intensity: 0.8}
	model.applyStatus(StatusMsg{
		Title:      "Song",
		State:      "playing",
		Position:   30 * time.Second,
		Duration:   3 * time.Minute,
		Levels:     features.Snapshot{Amplitude: 0.5, SpectralOK: true},
		Event:      ev,
		HasEvent:   true,
		Counts:     [haptics.NumTextures]int{2, 0, 0, 1},
		Step:       3,
		Sequencing: true,
		Tempo:      90,
	})

	if model.title != "Song" || model.state != "playing" {
		t.Errorf("expected track info applied, got %q %q", model.title, model.state)
	}
	if model.position != 30*time.Second || model.duration != 3*time.Minute {
		t.Errorf("unexpected times: %s / %s", model.position, model.duration)
	}
	if !model.hasEvent || model.lastEvent != ev {
		t.Errorf("expected event %+v, got %+v", ev, model.lastEvent)
	}
	if model.counts[haptics.Deep] != 2 || model.counts[haptics.Soft] != 1 {
		t.Errorf("unexpected counts: %v", model.counts)
	}
	if model.step != 3 || !model.sequencing || model.tempo != 90 {
		t.Errorf("unexpected sequencer state: step=%d playing=%v tempo=%f",
			model.step, model.sequencing, model.tempo)
	}

	// A later status without an event keeps the last one on screen
	model.applyStatus(StatusMsg{Step: -1})
	if !model.hasEvent || model.lastEvent.Seq != 7 {
		t.Error("expected last event to persist")
	}
	if model.title != "Song" {
		t.Error("expected empty title to leave the old one")
	}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := &fakeController{}
	model := press(t, NewModel(ctrl), "up", "down", "down")

	if model.volume != 90 || ctrl.volume != 90 {
		t.Errorf("expected volume 90, got model=%d ctrl=%d", model.volume, ctrl.volume)
	}

	model = press(t, model, "up", "up", "up")
	if model.volume != 100 {
		t.Errorf("expected volume clamped to 100, got %d", model.volume)
	}

	model = press(t, model, "m")
	if !model.muted || !ctrl.muted {
		t.Error("expected mute to toggle")
	}
}

func TestTransportKeys(t *testing.T) {
	ctrl := &fakeController{}
	press(t, NewModel(ctrl), " ", "s")

	if ctrl.toggles != 1 || ctrl.stops != 1 {
		t.Errorf("expected one toggle and one stop, got %d and %d", ctrl.toggles, ctrl.stops)
	}
}

func TestLayerKeys(t *testing.T) {
	ctrl := &fakeController{}
	model := press(t, NewModel(ctrl), "1", "1", "4", "!")

	want := []haptics.Texture{haptics.Deep, haptics.Deep, haptics.Soft}
	if len(ctrl.added) != len(want) {
		t.Fatalf("expected %v added, got %v", want, ctrl.added)
	}
	for i, tx := range want {
		if ctrl.added[i] != tx {
			t.Errorf("add %d: expected %s, got %s", i, tx, ctrl.added[i])
		}
	}
	if len(ctrl.removed) != 1 || ctrl.removed[0] != haptics.Deep {
		t.Errorf("expected deep removed, got %v", ctrl.removed)
	}
	if model.counts[haptics.Deep] != 1 || model.counts[haptics.Soft] != 1 {
		t.Errorf("unexpected local counts: %v", model.counts)
	}

	model = press(t, model, "c", "a")
	if ctrl.cleared != 1 || model.counts != ([haptics.NumTextures]int{}) {
		t.Error("expected layers cleared")
	}
	if ctrl.auto || model.auto {
		t.Error("expected auto haptics toggled off")
	}
}

func TestGridCycleAndResize(t *testing.T) {
	ctrl := &fakeController{}
	model := press(t, NewModel(ctrl), "right", "enter", "enter")

	if model.cursor != 1 {
		t.Errorf("expected cursor on step 1, got %d", model.cursor)
	}
	if got := sequencer.CellOf(model.pattern.Steps[1]); got != sequencer.CellSharp {
		t.Errorf("expected two cycles to reach sharp, got %d", got)
	}
	if len(ctrl.patterns) != 2 {
		t.Fatalf("expected a pattern pushed per cycle, got %d", len(ctrl.patterns))
	}

	// Pushed patterns are copies the model no longer mutates
	first := ctrl.patterns[0]
	if sequencer.CellOf(first.Steps[1]) != sequencer.CellDeep {
		t.Error("expected the first pushed pattern to keep its deep cell")
	}

	model = press(t, model, "left", "left")
	if model.cursor != 7 {
		t.Errorf("expected cursor to wrap to 7, got %d", model.cursor)
	}

	model = press(t, model, "n")
	if model.pattern.Len() != 16 {
		t.Errorf("expected 16 steps, got %d", model.pattern.Len())
	}
	model = press(t, model, "n")
	if model.pattern.Len() != 8 {
		t.Errorf("expected 8 steps, got %d", model.pattern.Len())
	}
}

func TestPresetKey(t *testing.T) {
	ctrl := &fakeController{}
	model := press(t, NewModel(ctrl), "P")

	if model.preset != 0 {
		t.Fatalf("expected first preset, got %d", model.preset)
	}
	if !model.pattern.Active() {
		t.Error("expected preset pattern to have active steps")
	}
	if len(ctrl.patterns) != 1 {
		t.Errorf("expected preset pushed, got %d", len(ctrl.patterns))
	}
}

func TestSequencerKeys(t *testing.T) {
	ctrl := &fakeController{}
	model := press(t, NewModel(ctrl), "p")

	if !model.sequencing || ctrl.sequences != 1 {
		t.Error("expected sequence to start")
	}
	model = press(t, model, "p")
	if model.sequencing || ctrl.seqStops != 1 {
		t.Error("expected sequence to stop")
	}

	model = press(t, model, "+", "+")
	if ctrl.tempo != 130 {
		t.Errorf("expected tempo 130, got %f", ctrl.tempo)
	}
	for i := 0; i < 100; i++ {
		model = press(t, model, "-")
	}
	if model.tempo != sequencer.MinTempo {
		t.Errorf("expected tempo clamped to %f, got %f", sequencer.MinTempo, model.tempo)
	}

	model = press(t, model, "w", "]", "]")
	if !ctrl.shifted {
		t.Error("expected swing on")
	}
	if ctrl.shift < 0.099 || ctrl.shift > 0.101 {
		t.Errorf("expected offset 0.1, got %f", ctrl.shift)
	}
	for i := 0; i < 20; i++ {
		model = press(t, model, "]")
	}
	if model.shiftOffset != sequencer.MaxShift {
		t.Errorf("expected offset clamped to %f, got %f", sequencer.MaxShift, model.shiftOffset)
	}
}

func TestPreviewPlaysCellTextures(t *testing.T) {
	ctrl := &fakeController{}
	model := NewModel(ctrl)
	model.pattern.Steps[0] = sequencer.StepOf(haptics.Deep, haptics.Rapid)

	press(t, model, "t")

	if len(ctrl.previewed) != 2 {
		t.Fatalf("expected two previews, got %v", ctrl.previewed)
	}
	if ctrl.previewed[0] != haptics.DeepPulse || ctrl.previewed[1] != haptics.RapidTexture {
		t.Errorf("unexpected previews: %v", ctrl.previewed)
	}
}

func TestQuit(t *testing.T) {
	model := NewModel(nil)
	next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	if cmd == nil {
		t.Error("expected quit command")
	}
	if !next.(Model).quitting {
		t.Error("expected quitting state")
	}
}

func TestViewRendersSections(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		Title:      "Groove",
		State:      "playing",
		Levels:     features.Snapshot{Amplitude: 0.5, SpectralOK: true},
		Event:      rhythm.Event{Seq: 1, Category: rhythm.Snare, Intensity: 0.6},
		HasEvent:   true,
		Appearance: layers.Blend([haptics.NumTextures]int{1, 0, 0, 0}),
		Step:       -1,
	})

	view := model.View()
	for _, want := range []string{"Echo", "Groove", "playing", rhythm.Snare.String(), "Layers", "Steps", "bpm"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{150, "████"},
		{-10, "░░░░"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 4); got != tt.want {
			t.Errorf("renderBar(%d): expected %q, got %q", tt.value, tt.want, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	got := sparkline([]float64{0, 0.5, 1, 2, -1})
	want := " ▄██ "
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClockAndTruncate(t *testing.T) {
	if got := clock(95 * time.Second); got != "1:35" {
		t.Errorf("expected 1:35, got %s", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("expected abc..., got %s", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected short, got %s", got)
	}
}
