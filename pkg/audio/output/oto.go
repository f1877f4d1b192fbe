// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls samples through a volume stage into a shared oto context
package output

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/echo-haptics/echo-go/pkg/audio"
)

// ErrFormat is returned when the process-wide context was already created
// with a different format.
var ErrFormat = errors.New("oto context already created with another format")

// oto only allows one context per process
var (
	sharedMu       sync.Mutex
	sharedCtx      *oto.Context
	sharedRate     int
	sharedChannels int
)

// Context returns the process-wide oto context, creating it on first use.
// Music playback and the haptic transducer both play through it.
func Context(sampleRate, channels int) (*oto.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCtx != nil {
		if sharedRate != sampleRate || sharedChannels != channels {
			return nil, fmt.Errorf("%w: have %dHz %dch, want %dHz %dch",
				ErrFormat, sharedRate, sharedChannels, sampleRate, channels)
		}
		return sharedCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	sharedCtx = ctx
	sharedRate = sampleRate
	sharedChannels = channels
	log.Printf("output: oto context ready: %dHz, %d channels", sampleRate, channels)
	return ctx, nil
}

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pcm        *pcmReader
	sampleRate int
	channels   int

	// read from oto's pull goroutine
	volume atomic.Int32
	muted  atomic.Bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	o := &Oto{}
	o.volume.Store(100)
	return o
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		return nil
	}

	ctx, err := Context(sampleRate, channels)
	if err != nil {
		return err
	}

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	log.Printf("output: initialized: %dHz, %d channels", sampleRate, channels)
	return nil
}

// Play starts pulling from r
func (o *Oto) Play(r Reader) error {
	if o.otoCtx == nil {
		return fmt.Errorf("output not initialized")
	}
	if o.player != nil {
		o.player.Pause()
		o.player.Close()
	}

	o.pcm = &pcmReader{src: r, out: o}
	o.player = o.otoCtx.NewPlayer(o.pcm)
	o.player.Play()
	return nil
}

// Pause suspends the current stream
func (o *Oto) Pause() {
	if o.player != nil {
		o.player.Pause()
	}
}

// Resume continues the current stream
func (o *Oto) Resume() {
	if o.player != nil {
		o.player.Play()
	}
}

// Playing reports whether the current stream is still running
func (o *Oto) Playing() bool {
	return o.player != nil && o.player.IsPlaying()
}

// BufferedFrames returns frames queued inside oto
func (o *Oto) BufferedFrames() int {
	if o.player == nil || o.channels == 0 {
		return 0
	}
	return o.player.BufferedSize() / (2 * o.channels)
}

// Close releases output resources. The shared context stays alive.
func (o *Oto) Close() error {
	if o.player != nil {
		o.player.Pause()
		if err := o.player.Close(); err != nil {
			return fmt.Errorf("close player: %w", err)
		}
		o.player = nil
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume.Store(int32(volume))
	log.Printf("output: volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted.Store(muted)
	log.Printf("output: muted: %v", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	return int(o.volume.Load())
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	return o.muted.Load()
}

// pcmReader adapts a sample Reader to the int16 LE byte stream oto pulls
type pcmReader struct {
	src Reader
	out *Oto
	buf []int32
}

func (p *pcmReader) Read(b []byte) (int, error) {
	want := len(b) / 2
	if want == 0 {
		return 0, nil
	}
	if cap(p.buf) < want {
		p.buf = make([]int32, want)
	}

	n, err := p.src.Read(p.buf[:want])
	if n > 0 {
		applyVolume(p.buf[:n], p.out.GetVolume(), p.out.IsMuted())
		audio.PutInt16LE(b, p.buf[:n])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("output: stream read failed: %v", err)
		err = io.EOF
	}
	return n * 2, err
}

// applyVolume scales samples in place with clipping protection
func applyVolume(samples []int32, volume int, muted bool) {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1 {
		return
	}

	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)

		// Clamp to 24-bit range to prevent overflow
		if scaled > audio.Max24Bit {
			scaled = audio.Max24Bit
		} else if scaled < audio.Min24Bit {
			scaled = audio.Min24Bit
		}

		samples[i] = int32(scaled)
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
