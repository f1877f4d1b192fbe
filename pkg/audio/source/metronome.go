// ABOUTME: Synthetic metronome source
// ABOUTME: Generates a kick, snare and hi-hat pattern for exercising analysis without files
package source

import (
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/echo-haptics/echo-go/pkg/audio"
)

// MetronomeConfig configures a Metronome
type MetronomeConfig struct {
	// BPM is the tempo in beats per minute (default 120)
	BPM float64

	// SampleRate in Hz (default 48000)
	SampleRate int

	// Bars limits the length in 4/4 bars; zero plays forever
	Bars int
}

func (c MetronomeConfig) withDefaults() MetronomeConfig {
	if c.BPM <= 0 {
		c.BPM = 120
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
	return c
}

const (
	kickLength  = 120 * time.Millisecond
	snareLength = 150 * time.Millisecond
	hatLength   = 40 * time.Millisecond
)

// Metronome plays kicks on beats 1 and 3, snares on 2 and 4 and hi-hats on
// every eighth note. Output is stereo.
type Metronome struct {
	cfg   MetronomeConfig
	frame int64
	total int64
	rng   *rand.Rand
}

// NewMetronome creates a metronome source
func NewMetronome(cfg MetronomeConfig) *Metronome {
	cfg = cfg.withDefaults()
	m := &Metronome{
		cfg: cfg,
		rng: rand.New(rand.NewSource(1)),
	}
	if cfg.Bars > 0 {
		m.total = int64(float64(cfg.Bars*4) * m.beatFrames())
	}
	return m
}

func (m *Metronome) beatFrames() float64 {
	return 60 / m.cfg.BPM * float64(m.cfg.SampleRate)
}

func (m *Metronome) Read(samples []int32) (int, error) {
	frames := len(samples) / 2
	if m.total > 0 {
		if left := m.total - m.frame; left <= 0 {
			return 0, io.EOF
		} else if int64(frames) > left {
			frames = int(left)
		}
	}

	for i := 0; i < frames; i++ {
		v := audio.SampleFromFloat(float32(m.sample(m.frame + int64(i))))
		samples[i*2] = v
		samples[i*2+1] = v
	}
	m.frame += int64(frames)
	return frames * 2, nil
}

// sample synthesizes frame n
func (m *Metronome) sample(n int64) float64 {
	rate := float64(m.cfg.SampleRate)
	beat := m.beatFrames()
	eighth := beat / 2

	pos := float64(n)
	beatIndex := int64(pos / beat)
	sinceBeat := (pos - float64(beatIndex)*beat) / rate
	sinceEighth := (pos - math.Floor(pos/eighth)*eighth) / rate

	v := 0.0
	if beatIndex%2 == 0 {
		if sinceBeat < kickLength.Seconds() {
			// Pitch-dropping sine, 120Hz down to 50Hz
			freq := 50 + 70*math.Exp(-sinceBeat*30)
			v += 0.9 * math.Exp(-sinceBeat*25) * math.Sin(2*math.Pi*freq*sinceBeat)
		}
	} else if sinceBeat < snareLength.Seconds() {
		noise := m.rng.Float64()*2 - 1
		tone := math.Sin(2 * math.Pi * 200 * sinceBeat)
		v += 0.5 * math.Exp(-sinceBeat*20) * (0.7*noise + 0.3*tone)
	}
	if sinceEighth < hatLength.Seconds() {
		// Bright square-ish burst standing in for filtered noise
		hat := math.Sin(2*math.Pi*9000*sinceEighth) * math.Sin(2*math.Pi*11500*sinceEighth)
		v += 0.25 * math.Exp(-sinceEighth*90) * hat
	}
	return v
}

func (m *Metronome) SampleRate() int { return m.cfg.SampleRate }
func (m *Metronome) Channels() int   { return 2 }
func (m *Metronome) Title() string   { return "Metronome" }

func (m *Metronome) Duration() time.Duration {
	return framesToDuration(m.total, m.cfg.SampleRate)
}

func (m *Metronome) Close() error { return nil }
