// ABOUTME: Track playback with an analysis tap
// ABOUTME: Plays a source through an output while feeding the rhythm pipeline
package playback

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/echo-haptics/echo-go/pkg/audio/output"
	"github.com/echo-haptics/echo-go/pkg/audio/source"
)

// ErrNoTrack is returned by Play before a track is loaded.
var ErrNoTrack = errors.New("no track loaded")

// State is the transport state of a Player
type State int

const (
	Stopped State = iota
	Playing
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opener creates a fresh source positioned at the start of a track
type Opener func() (source.Source, error)

// Config holds playback configuration
type Config struct {
	// SampleRate is the device rate (default 48000)
	SampleRate int

	// Channels is the device channel count (default 2)
	Channels int

	// BlockFrames is the analysis block length (default 1024)
	BlockFrames int
}

// DefaultConfig returns playback defaults
func DefaultConfig() Config {
	return Config{
		SampleRate:  48000,
		Channels:    2,
		BlockFrames: 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Channels <= 0 {
		c.Channels = d.Channels
	}
	if c.BlockFrames <= 0 {
		c.BlockFrames = d.BlockFrames
	}
	return c
}

// Player plays one track at a time
type Player struct {
	cfg      Config
	out      output.Output
	analyzer Analyzer

	mu     sync.Mutex
	open   Opener
	src    source.Source
	tap    *tap
	state  State
	title  string
	length time.Duration
}

// New creates a player on out. analyzer may be nil.
func New(out output.Output, analyzer Analyzer, cfg Config) *Player {
	return &Player{
		cfg:      cfg.withDefaults(),
		out:      out,
		analyzer: analyzer,
	}
}

// LoadFile loads a track from disk
func (p *Player) LoadFile(path string, opts source.Options) error {
	return p.Load(func() (source.Source, error) {
		return source.Open(path, opts)
	})
}

// Load stops the current track and prepares open for playback
func (p *Player) Load(open Opener) error {
	src, err := open()
	if err != nil {
		return fmt.Errorf("load track: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.open = open
	p.src = src
	p.title = src.Title()
	p.length = src.Duration()
	log.Printf("playback: loaded %q: %dHz, %d channels, %s",
		p.title, src.SampleRate(), src.Channels(), p.length)
	return nil
}

// Play starts or resumes the loaded track
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.stateLocked() {
	case Playing:
		return nil
	case Paused:
		p.out.Resume()
		p.state = Playing
		return nil
	case Ended:
		p.stopLocked()
	}

	if p.open == nil {
		return ErrNoTrack
	}
	if p.src == nil {
		src, err := p.open()
		if err != nil {
			return fmt.Errorf("reopen track: %w", err)
		}
		p.src = src
	}

	if err := p.out.Open(p.cfg.SampleRate, p.cfg.Channels); err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	p.tap = newTap(p.src, p.analyzer, p.cfg.SampleRate, p.cfg.Channels, p.cfg.BlockFrames)
	if err := p.out.Play(p.tap); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	p.state = Playing
	log.Printf("playback: playing %q", p.title)
	return nil
}

// Pause suspends playback
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stateLocked() == Playing {
		p.out.Pause()
		p.state = Paused
	}
}

// Toggle switches between playing and paused
func (p *Player) Toggle() error {
	if p.State() == Playing {
		p.Pause()
		return nil
	}
	return p.Play()
}

// Stop ends playback and rewinds to the start of the track
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.tap != nil {
		if err := p.out.Close(); err != nil {
			log.Printf("playback: close output: %v", err)
		}
		p.tap = nil
	}
	if p.src != nil {
		if err := p.src.Close(); err != nil {
			log.Printf("playback: close source: %v", err)
		}
		p.src = nil
	}
	p.state = Stopped
}

// State returns the transport state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// stateLocked notices a stream the output finished pulling
func (p *Player) stateLocked() State {
	if p.state == Playing && p.tap != nil && p.tap.eof.Load() && !p.out.Playing() {
		p.state = Ended
	}
	return p.state
}

// Position returns how much of the track has been heard
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tap == nil {
		return 0
	}
	frames := p.tap.Pulled() - int64(p.out.BufferedFrames())
	if frames < 0 {
		frames = 0
	}
	return time.Duration(frames) * time.Second / time.Duration(p.cfg.SampleRate)
}

// Duration returns the track length, zero when unknown
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.length
}

// Title returns the loaded track's title
func (p *Player) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Close stops playback and releases the output
func (p *Player) Close() error {
	p.Stop()
	return p.out.Close()
}
