// ABOUTME: Tests for application orchestration
// ABOUTME: Exercises config defaults and the TUI controller against a live session without audio devices
package app

import (
	"context"
	"testing"

	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
)

func startSession(t *testing.T, config Config) *App {
	t.Helper()
	a := New(config)
	if err := a.session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

func TestNewApp(t *testing.T) {
	a := New(Config{})

	if a.config.SampleRate != 48000 {
		t.Errorf("expected default sample rate 48000, got %d", a.config.SampleRate)
	}
	if a.session == nil {
		t.Fatal("session should be initialized")
	}
	if a.ctx == nil || a.cancel == nil {
		t.Error("context should be initialized")
	}
	if _, ok := a.hapticEngine().(*haptics.Nop); !ok {
		t.Error("expected the no-op engine without a transducer")
	}
}

func TestConfigureSequencer(t *testing.T) {
	a := startSession(t, Config{Preset: "backbeat", Swing: 0.25, Tempo: 90})
	a.configureSequencer()

	want := sequencer.Presets()["backbeat"]
	got := a.session.Pattern()
	if got.Len() != want.Len() {
		t.Fatalf("expected %d steps, got %d", want.Len(), got.Len())
	}
	for i := range want.Steps {
		if got.Steps[i] != want.Steps[i] {
			t.Errorf("step %d: expected %v, got %v", i, want.Steps[i], got.Steps[i])
		}
	}
	if a.session.Tempo() != 90 {
		t.Errorf("expected tempo 90, got %f", a.session.Tempo())
	}
}

func TestUnknownPresetKeepsEmptyPattern(t *testing.T) {
	a := startSession(t, Config{Preset: "polka"})
	a.configureSequencer()

	if a.session.Pattern().Active() {
		t.Error("expected the default empty pattern")
	}
}

func TestControllerDrivesSession(t *testing.T) {
	a := startSession(t, Config{AutoHaptics: true})

	if !a.AddLayer(haptics.Deep) || !a.AddLayer(haptics.Deep) {
		t.Fatal("expected layers to be added")
	}
	a.AddLayer(haptics.Soft)
	if !a.RemoveLayer(haptics.Soft) {
		t.Error("expected soft layer to be removed")
	}

	status := a.Status()
	if status.Counts[haptics.Deep] != 2 || status.Counts[haptics.Soft] != 0 {
		t.Errorf("unexpected counts: %v", status.Counts)
	}
	if status.Appearance.Hex() == "#ffffff" || status.Appearance.GlowIntensity <= 0.3 {
		t.Errorf("expected a tinted, brighter appearance, got %s glow %f",
			status.Appearance.Hex(), status.Appearance.GlowIntensity)
	}

	p, _ := sequencer.NewPattern(8)
	p.Steps[0] = sequencer.StepOf(haptics.Sharp)
	a.SetPattern(p)
	a.SetTempo(150)
	if !a.PlaySequence() {
		t.Fatal("expected sequence to start")
	}

	status = a.Status()
	if !status.Sequencing || status.Tempo != 150 {
		t.Errorf("expected sequencing at 150bpm, got %v at %f", status.Sequencing, status.Tempo)
	}

	a.StopSequence()
	a.ClearLayers()
	if a.session.TotalLayers() != 0 {
		t.Error("expected layers cleared")
	}
}

func TestPlaybackControlsWithoutPlayer(t *testing.T) {
	a := startSession(t, Config{})

	if err := a.TogglePlayback(); err == nil {
		t.Error("expected an error without a player")
	}

	// No output attached: these must be safe no-ops
	a.StopPlayback()
	a.SetVolume(50)
	a.SetMuted(true)

	status := a.Status()
	if status.Title != "" || status.State != "" {
		t.Errorf("expected no transport info, got %q %q", status.Title, status.State)
	}
	if status.HapticsAvailable {
		t.Error("expected haptics unavailable with the no-op engine")
	}
}

func TestPlayTextureWithoutHardware(t *testing.T) {
	a := startSession(t, Config{})

	if err := a.PlayTexture(haptics.Kick, 0.9); err != nil {
		t.Errorf("expected unavailable hardware to be silent, got %v", err)
	}
	a.SetAutoHaptics(false)
}

func TestLogObserver(t *testing.T) {
	var o logObserver
	o.OnRhythm(rhythm.Event{Seq: 1, Category: rhythm.Kick, Intensity: 0.5})
}
