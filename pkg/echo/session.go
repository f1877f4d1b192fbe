// ABOUTME: Echo session owning analysis, haptics, layers and the sequencer
// ABOUTME: Serializes all mutations on a run loop and fans results out to observers
package echo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/echo-haptics/echo-go/pkg/runloop"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrNotStarted is returned by operations that need a running session.
var ErrNotStarted = errors.New("echo: session not started")

// Config configures a Session
type Config struct {
	Pipeline  PipelineConfig
	Sequencer sequencer.Config

	// Engine plays haptic patterns (default: haptics.Nop)
	Engine haptics.Engine

	// Clock drives timers and event timestamps (default: real clock)
	Clock clockwork.Clock

	// DisableAutoHaptics starts the session with rhythm events not played
	DisableAutoHaptics bool
}

// Observer receives analysis results on the session's run loop.
type Observer interface {
	OnLevels(features.Snapshot)
	OnRhythm(rhythm.Event)
}

// StepObserver is implemented by observers that follow the sequencer
// playhead.
type StepObserver interface {
	OnStep(step int)
}

// AppearanceObserver is implemented by observers that follow layer
// changes.
type AppearanceObserver interface {
	OnAppearance(layers.Appearance)
}

// Stats summarizes session activity
type Stats struct {
	Blocks    uint64
	Events    uint64
	AutoPlays uint64
	Haptics   haptics.Stats
}

// Session is the composition root. Public methods are safe for concurrent
// use; they run on the session's loop.
type Session struct {
	id       string
	clock    clockwork.Clock
	loop     *runloop.Loop
	pipeline *Pipeline
	service  *haptics.Service
	layers   *layers.Engine
	seq      *sequencer.Sequencer

	// Owned by the loop
	observers []Observer
	auto      bool
	lastSeq   uint64
	events    uint64
	autoPlays uint64

	spectralReported bool

	queued  atomic.Bool
	started atomic.Bool
	closed  atomic.Bool

	// stopped is set once the loop goroutine has exited after Close; state
	// is then read directly
	stopped atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session. Call Start before feeding audio.
func New(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Engine == nil {
		cfg.Engine = haptics.NewNop()
	}

	loop := runloop.New(cfg.Clock)
	service := haptics.NewService(cfg.Engine)

	s := &Session{
		id:       uuid.New().String(),
		clock:    cfg.Clock,
		loop:     loop,
		pipeline: NewPipeline(cfg.Pipeline, cfg.Clock),
		service:  service,
		layers:   layers.New(loop, service),
		seq:      sequencer.New(loop, service, cfg.Sequencer),
		auto:     !cfg.DisableAutoHaptics,
	}

	service.OnRestart(s.layers.Restart)
	s.layers.OnChange = s.notifyAppearance
	s.seq.OnStep = s.notifyStep
	return s
}

// ID returns the session id used in logs
func (s *Session) ID() string {
	return s.id
}

// Pipeline returns the analysis pipeline for the audio callback
func (s *Session) Pipeline() *Pipeline {
	return s.pipeline
}

// Start starts the run loop, the haptic engine and event delivery.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("echo: session %s already started", s.id)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.loop.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("echo: session %s loop stopped: %v", s.id, err)
		}
	}()

	var startErr error
	if err := s.loop.Do(func() { startErr = s.service.Start() }); err != nil {
		return err
	}
	if startErr != nil {
		s.Close()
		return fmt.Errorf("echo: start session: %w", startErr)
	}

	s.wg.Add(1)
	go s.pump()

	log.Printf("echo: session %s started (haptics available: %v)", s.id, s.service.Available())
	return nil
}

// pump forwards pipeline notifications to the loop. At most one delivery
// is queued at a time; it always reads the newest values.
func (s *Session) pump() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.pipeline.Notify():
			if s.queued.Swap(true) {
				continue
			}
			if !s.loop.Post(s.deliver) {
				return
			}
		}
	}
}

func (s *Session) deliver() {
	s.queued.Store(false)

	if !s.spectralReported {
		if err := s.pipeline.SpectralErr(); err != nil {
			log.Printf("echo: session %s: spectral analysis lost, using amplitude onsets: %v", s.id, err)
			s.spectralReported = true
		}
	}

	snap := s.pipeline.Levels()
	for _, o := range s.observers {
		o.OnLevels(snap)
	}

	ev, ok := s.pipeline.LatestEvent()
	if !ok || ev.Seq == s.lastSeq {
		return
	}
	s.lastSeq = ev.Seq
	s.events++

	for _, o := range s.observers {
		o.OnRhythm(ev)
	}

	if s.auto {
		s.autoPlays++
		p := haptics.Synthesize(haptics.ForRhythm(ev.Category), ev.Intensity)
		if err := s.service.Play(p); err != nil {
			log.Printf("echo: session %s: %s haptic failed: %v", s.id, ev.Category, err)
		}
	}
}

func (s *Session) notifyAppearance(a layers.Appearance) {
	for _, o := range s.observers {
		if ao, ok := o.(AppearanceObserver); ok {
			ao.OnAppearance(a)
		}
	}
}

func (s *Session) notifyStep(step int) {
	for _, o := range s.observers {
		if so, ok := o.(StepObserver); ok {
			so.OnStep(step)
		}
	}
}

// do runs fn on the loop
func (s *Session) do(fn func()) error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return s.loop.Do(fn)
}

// Close stops playback and the loop. It is safe to call more than once,
// including after the context passed to Start was cancelled.
func (s *Session) Close() error {
	if !s.started.Load() || !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var (
		closeErr error
		torndown bool
	)
	teardown := func() {
		torndown = true
		s.seq.Stop()
		s.layers.Stop()
		closeErr = s.service.Close()
	}

	doErr := s.loop.Do(teardown)

	s.loop.Close()
	s.cancel()
	s.wg.Wait()
	s.stopped.Store(true)

	// The loop already exited with the parent context; nothing else
	// touches its state now.
	if !torndown {
		teardown()
	}
	if doErr != nil && !errors.Is(doErr, runloop.ErrClosed) {
		return fmt.Errorf("echo: close session %s: %w", s.id, doErr)
	}

	log.Printf("echo: session %s closed", s.id)
	return closeErr
}

// Levels returns the latest amplitude and normalized fine bands. It reads
// a lock-free slot and does not touch the loop.
func (s *Session) Levels() (float64, [features.NumFineBands]float64) {
	snap := s.pipeline.Levels()
	return snap.Amplitude, snap.Bands
}

// LatestRhythmEvent returns the most recent rhythm event
func (s *Session) LatestRhythmEvent() (rhythm.Event, bool) {
	return s.pipeline.LatestEvent()
}

// Subscribe registers o for results delivered on the loop
func (s *Session) Subscribe(o Observer) error {
	return s.do(func() { s.observers = append(s.observers, o) })
}

// SetAutoHaptics enables or disables playing rhythm events
func (s *Session) SetAutoHaptics(on bool) error {
	return s.do(func() { s.auto = on })
}

// PlayTexture plays one library pattern
func (s *Session) PlayTexture(c haptics.Category, intensity float64) error {
	var err error
	if derr := s.do(func() { err = s.service.PlayTexture(c, intensity) }); derr != nil {
		return derr
	}
	return err
}

// StopTexture stops every pattern currently playing
func (s *Session) StopTexture() error {
	var err error
	if derr := s.do(func() { err = s.service.StopTexture() }); derr != nil {
		return derr
	}
	return err
}

// AddLayer stacks one layer of t; false when capped
func (s *Session) AddLayer(t haptics.Texture) bool {
	var added bool
	s.do(func() { added = s.layers.Add(t) })
	return added
}

// RemoveLayer removes one layer of t; false when none
func (s *Session) RemoveLayer(t haptics.Texture) bool {
	var removed bool
	s.do(func() { removed = s.layers.Remove(t) })
	return removed
}

// ClearLayers removes every layer
func (s *Session) ClearLayers() {
	s.do(s.layers.Clear)
}

// Appearance returns the blended layer appearance
func (s *Session) Appearance() layers.Appearance {
	a := layers.Blend([haptics.NumTextures]int{})
	s.do(func() { a = s.layers.Appearance() })
	return a
}

// LayerCount returns the number of layers of t
func (s *Session) LayerCount(t haptics.Texture) int {
	var n int
	s.do(func() { n = s.layers.Count(t) })
	return n
}

// TotalLayers returns the number of layers across all textures
func (s *Session) TotalLayers() int {
	var n int
	s.do(func() { n = s.layers.Total() })
	return n
}

// SetPattern replaces the sequencer pattern
func (s *Session) SetPattern(p sequencer.Pattern) {
	p = p.Clone()
	s.do(func() { s.seq.SetPattern(p) })
}

// Pattern returns a copy of the sequencer pattern
func (s *Session) Pattern() sequencer.Pattern {
	var p sequencer.Pattern
	s.do(func() { p = s.seq.Pattern() })
	return p
}

// SetTempo sets the sequencer tempo in bpm
func (s *Session) SetTempo(bpm float64) {
	s.do(func() { s.seq.SetTempo(bpm) })
}

// Tempo returns the sequencer tempo in bpm
func (s *Session) Tempo() float64 {
	var bpm float64
	s.do(func() { bpm = s.seq.Tempo() })
	return bpm
}

// SetShiftOffset sets the sequencer swing amount
func (s *Session) SetShiftOffset(f float64) {
	s.do(func() { s.seq.SetShiftOffset(f) })
}

// SetShifted enables or disables sequencer swing
func (s *Session) SetShifted(on bool) {
	s.do(func() { s.seq.SetShifted(on) })
}

// PlaySequence starts the sequencer; false when already playing or the
// pattern is empty
func (s *Session) PlaySequence() bool {
	var started bool
	s.do(func() { started = s.seq.Play() })
	return started
}

// StopSequence stops the sequencer
func (s *Session) StopSequence() {
	s.do(s.seq.Stop)
}

// IsSequencing reports whether the sequencer is playing
func (s *Session) IsSequencing() bool {
	var playing bool
	s.do(func() { playing = s.seq.IsPlaying() })
	return playing
}

// CurrentStep returns the sequencer playhead, or -1 when stopped
func (s *Session) CurrentStep() int {
	step := -1
	s.do(func() { step = s.seq.CurrentStep() })
	return step
}

// Stats returns session counters
func (s *Session) Stats() Stats {
	st := Stats{Blocks: s.pipeline.Blocks()}
	read := func() {
		st.Events = s.events
		st.AutoPlays = s.autoPlays
		st.Haptics = s.service.Stats()
	}
	if s.stopped.Load() {
		read()
		return st
	}
	s.do(read)
	return st
}
