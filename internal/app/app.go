// ABOUTME: Echo application orchestration
// ABOUTME: Wires audio input, the session, haptic output and the TUI together
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/echo-haptics/echo-go/internal/capture"
	"github.com/echo-haptics/echo-go/internal/playback"
	"github.com/echo-haptics/echo-go/internal/ui"
	"github.com/echo-haptics/echo-go/internal/version"
	"github.com/echo-haptics/echo-go/pkg/audio/output"
	"github.com/echo-haptics/echo-go/pkg/audio/source"
	"github.com/echo-haptics/echo-go/pkg/echo"
	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
)

// statusInterval paces TUI refreshes
const statusInterval = 33 * time.Millisecond

// Config holds application configuration
type Config struct {
	// File is the track to play; empty plays the built-in metronome
	File string
	Loop bool

	// BPM of the metronome when no file is given
	BPM float64

	// Capture analyzes an input device instead of playing a track
	Capture  bool
	Loopback bool

	// SampleRate is the device rate shared by playback and the transducer
	SampleRate int
	Volume     int

	// Transducer renders haptics as low-frequency audio on the output
	Transducer bool
	Gain       float64

	AutoHaptics bool
	Preset      string
	Tempo       float64
	Swing       float64

	UseTUI bool
}

// App represents the main application
type App struct {
	config  Config
	session *echo.Session
	out     *output.Oto
	player  *playback.Player
	capture *capture.Capture
	tui     *ui.TUI
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates the application and its session
func New(config Config) *App {
	if config.SampleRate <= 0 {
		config.SampleRate = playback.DefaultConfig().SampleRate
	}
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	a.session = echo.New(echo.Config{
		Engine:             a.hapticEngine(),
		Sequencer:          sequencer.Config{Tempo: config.Tempo},
		DisableAutoHaptics: !config.AutoHaptics,
	})
	return a
}

// hapticEngine picks the transducer when requested and the device opens
func (a *App) hapticEngine() haptics.Engine {
	if !a.config.Transducer {
		return haptics.NewNop()
	}

	octx, err := output.Context(a.config.SampleRate, 2)
	if err != nil {
		log.Printf("app: transducer unavailable: %v", err)
		return haptics.NewNop()
	}
	return haptics.NewTransducer(octx, haptics.TransducerConfig{
		SampleRate: a.config.SampleRate,
		Channels:   2,
		Gain:       a.config.Gain,
	})
}

// Start starts the session and the audio input
func (a *App) Start() error {
	log.Printf("app: %s session %s", version.String(), a.session.ID())

	if err := a.session.Start(a.ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if err := a.session.Pipeline().Prepare(a.config.SampleRate); err != nil {
		log.Printf("app: spectral analysis disabled: %v", err)
	}

	a.configureSequencer()

	if a.config.Capture {
		return a.startCapture()
	}
	return a.startPlayback()
}

func (a *App) configureSequencer() {
	if a.config.Preset != "" {
		p, ok := sequencer.Presets()[a.config.Preset]
		if !ok {
			log.Printf("app: unknown preset %q", a.config.Preset)
		} else {
			a.session.SetPattern(p)
		}
	}
	if a.config.Swing > 0 {
		a.session.SetShiftOffset(a.config.Swing)
		a.session.SetShifted(true)
	}
}

func (a *App) startCapture() error {
	a.capture = capture.New(a.session.Pipeline(), capture.Config{
		SampleRate: a.config.SampleRate,
		Loopback:   a.config.Loopback,
	})
	if err := a.capture.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

func (a *App) startPlayback() error {
	a.out = output.NewOto()
	if a.config.Volume > 0 {
		a.out.SetVolume(a.config.Volume)
	}
	a.player = playback.New(a.out, a.session.Pipeline(), playback.Config{
		SampleRate: a.config.SampleRate,
	})

	var err error
	if a.config.File != "" {
		err = a.player.LoadFile(a.config.File, source.Options{Loop: a.config.Loop})
	} else {
		err = a.player.Load(a.metronome)
	}
	if err != nil {
		return err
	}
	return a.player.Play()
}

func (a *App) metronome() (source.Source, error) {
	return source.NewMetronome(source.MetronomeConfig{
		BPM:        a.config.BPM,
		SampleRate: a.config.SampleRate,
	}), nil
}

// Run blocks until ctx ends or the user quits the TUI
func (a *App) Run(ctx context.Context) error {
	if !a.config.UseTUI {
		if err := a.session.Subscribe(logObserver{}); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
		case <-a.ctx.Done():
		}
		return nil
	}

	a.tui = ui.New(a)
	go a.statusLoop()
	go func() {
		select {
		case <-ctx.Done():
			a.tui.Quit()
		case <-a.ctx.Done():
		}
	}()

	err := a.tui.Run()
	a.cancel()
	return err
}

// statusLoop pushes snapshots to the TUI until the app stops
func (a *App) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tui.Update(a.Status())
		case <-a.ctx.Done():
			return
		}
	}
}

// Status gathers the current display state
func (a *App) Status() ui.StatusMsg {
	ev, ok := a.session.LatestRhythmEvent()
	counts := [haptics.NumTextures]int{}
	for _, t := range haptics.Textures() {
		counts[t] = a.session.LayerCount(t)
	}

	msg := ui.StatusMsg{
		Levels:           a.session.Pipeline().Levels(),
		Event:            ev,
		HasEvent:         ok,
		Counts:           counts,
		Appearance:       a.session.Appearance(),
		Step:             a.session.CurrentStep(),
		Sequencing:       a.session.IsSequencing(),
		Tempo:            a.session.Tempo(),
		HapticsAvailable: a.session.Stats().Haptics.Available,
	}

	switch {
	case a.player != nil:
		msg.Title = a.player.Title()
		msg.State = a.player.State().String()
		msg.Position = a.player.Position()
		msg.Duration = a.player.Duration()
	case a.capture != nil:
		msg.Title = "Live input"
		msg.State = "capturing"
	}
	return msg
}

// Stop stops the application
func (a *App) Stop() {
	a.cancel()

	if a.capture != nil {
		if err := a.capture.Close(); err != nil {
			log.Printf("app: close capture: %v", err)
		}
	}
	if a.player != nil {
		if err := a.player.Close(); err != nil {
			log.Printf("app: close playback: %v", err)
		}
	}
	if err := a.session.Close(); err != nil {
		log.Printf("app: close session: %v", err)
	}

	stats := a.session.Stats()
	log.Printf("app: stopped: %d blocks, %d rhythm events, %d haptics played, %d failed",
		stats.Blocks, stats.Events, stats.Haptics.Played, stats.Haptics.Failed)
}

// TUI controller

func (a *App) TogglePlayback() error {
	if a.player == nil {
		return errors.New("no playback in capture mode")
	}
	return a.player.Toggle()
}

func (a *App) StopPlayback() {
	if a.player != nil {
		a.player.Stop()
	}
}

func (a *App) SetVolume(volume int) {
	if a.out != nil {
		a.out.SetVolume(volume)
	}
}

func (a *App) SetMuted(muted bool) {
	if a.out != nil {
		a.out.SetMuted(muted)
	}
}

func (a *App) AddLayer(t haptics.Texture) bool    { return a.session.AddLayer(t) }
func (a *App) RemoveLayer(t haptics.Texture) bool { return a.session.RemoveLayer(t) }
func (a *App) ClearLayers()                       { a.session.ClearLayers() }

func (a *App) PlayTexture(c haptics.Category, intensity float64) error {
	return a.session.PlayTexture(c, intensity)
}

func (a *App) SetAutoHaptics(on bool) {
	if err := a.session.SetAutoHaptics(on); err != nil {
		log.Printf("app: auto haptics: %v", err)
	}
}

func (a *App) SetPattern(p sequencer.Pattern) { a.session.SetPattern(p) }
func (a *App) SetTempo(bpm float64)         { a.session.SetTempo(bpm) }
func (a *App) SetShiftOffset(f float64)     { a.session.SetShiftOffset(f) }
func (a *App) SetShifted(on bool)           { a.session.SetShifted(on) }
func (a *App) PlaySequence() bool           { return a.session.PlaySequence() }
func (a *App) StopSequence()                { a.session.StopSequence() }

// logObserver streams rhythm events when the TUI is off
type logObserver struct{}

func (logObserver) OnLevels(features.Snapshot) {}

func (logObserver) OnRhythm(ev rhythm.Event) {
	log.Printf("rhythm: %-5s intensity=%.2f seq=%d", ev.Category, ev.Intensity, ev.Seq)
}

func (logObserver) OnAppearance(a layers.Appearance) {
	log.Printf("layers: color %s glow %.2f", a.Hex(), a.GlowIntensity)
}
