// ABOUTME: Tactile transducer backend using oto
// ABOUTME: Plays rendered patterns as low-frequency PCM through a shared audio context
package haptics

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/echo-haptics/echo-go/pkg/audio"
)

// voice is the subset of *oto.Player the transducer drives
type voice interface {
	Play()
	Pause()
	IsPlaying() bool
	Err() error
}

// TransducerConfig configures a Transducer. SampleRate and Channels must
// match the oto context the transducer plays through.
type TransducerConfig struct {
	SampleRate int
	Channels   int

	// Gain scales the drive signal (default 1.0)
	Gain float64
}

func (c TransducerConfig) withDefaults() TransducerConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
	if c.Channels <= 0 {
		c.Channels = 2
	}
	if c.Gain <= 0 {
		c.Gain = 1.0
	}
	return c
}

// Transducer renders patterns to audio and plays each one on its own oto
// player, so overlapping patterns mix in the device.
type Transducer struct {
	cfg      TransducerConfig
	newVoice func(r io.Reader) voice

	mu      sync.Mutex
	started bool
	voices  []voice
	mono    []float32
	played  uint64
}

// NewTransducer creates a transducer on an existing oto context. A nil
// context yields a backend whose Start reports ErrUnavailable.
func NewTransducer(ctx *oto.Context, cfg TransducerConfig) *Transducer {
	t := &Transducer{cfg: cfg.withDefaults()}
	if ctx != nil {
		t.newVoice = func(r io.Reader) voice {
			return ctx.NewPlayer(r)
		}
	}
	return t
}

// Start arms the transducer
func (t *Transducer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.newVoice == nil {
		return ErrUnavailable
	}
	t.started = true
	log.Printf("haptics: transducer started: %dHz, %d channels, gain %.2f",
		t.cfg.SampleRate, t.cfg.Channels, t.cfg.Gain)
	return nil
}

// Play renders p and starts it immediately
func (t *Transducer) Play(p Pattern) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return ErrEngineStopped
	}

	live := t.voices[:0]
	for _, v := range t.voices {
		if err := v.Err(); err != nil {
			t.started = false
			t.voices = nil
			return fmt.Errorf("%w: %v", ErrEngineStopped, err)
		}
		if v.IsPlaying() {
			live = append(live, v)
		}
	}
	t.voices = live

	t.mono = Render(p, t.cfg.SampleRate, t.mono)
	if len(t.mono) == 0 {
		return nil
	}

	pcm := t.encode(t.mono)
	v := t.newVoice(bytes.NewReader(pcm))
	v.Play()
	t.voices = append(t.voices, v)
	t.played++
	return nil
}

// encode duplicates the mono drive into every channel as int16 LE
func (t *Transducer) encode(mono []float32) []byte {
	ch := t.cfg.Channels
	out := make([]byte, len(mono)*ch*2)
	frame := make([]int32, ch)
	for i, s := range mono {
		v := audio.SampleFromFloat(s * float32(t.cfg.Gain))
		for c := range frame {
			frame[c] = v
		}
		audio.PutInt16LE(out[i*ch*2:], frame)
	}
	return out
}

// StopAll silences every pattern still playing
func (t *Transducer) StopAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, v := range t.voices {
		v.Pause()
	}
	t.voices = nil
	return nil
}

// Close stops playback and disarms the transducer. The oto context is
// shared and stays open.
func (t *Transducer) Close() error {
	t.StopAll()

	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
	return nil
}

// Played returns the number of patterns started since creation
func (t *Transducer) Played() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.played
}
