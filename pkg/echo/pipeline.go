// ABOUTME: Real-time analysis pipeline run from the audio callback
// ABOUTME: Feature extraction and onset detection publishing to lock-free slots
package echo

import (
	"sync/atomic"

	"github.com/echo-haptics/echo-go/pkg/audio"
	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/onset"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/jonboulle/clockwork"
)

// PipelineConfig configures analysis; zero values take defaults.
type PipelineConfig struct {
	Features  features.Config
	Onset     onset.Config
	Amplitude onset.AmplitudeConfig
	Structure onset.StructureConfig

	// DisableStructure turns off build and drop detection
	DisableStructure bool
}

// Pipeline analyzes PCM blocks. Process* methods must be called from a
// single goroutine (the audio callback). They never block, lock or log, and
// only allocate when the host grows its buffer size.
type Pipeline struct {
	clock clockwork.Clock

	extractor *features.Extractor
	detector  *onset.Detector
	fallback  *onset.AmplitudeDetector
	structure *onset.StructureDetector

	levels features.Levels
	events rhythm.Channel
	notify chan struct{}

	scratch []float32
	blocks  atomic.Uint64
}

// NewPipeline creates a pipeline. A nil clock uses the real clock.
func NewPipeline(cfg PipelineConfig, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := &Pipeline{
		clock:     clock,
		extractor: features.NewExtractor(cfg.Features),
		detector:  onset.NewDetector(cfg.Onset),
		fallback:  onset.NewAmplitudeDetector(cfg.Amplitude),
		notify:    make(chan struct{}, 1),
	}
	if !cfg.DisableStructure {
		p.structure = onset.NewStructureDetector(cfg.Structure)
	}
	return p
}

// Prepare allocates analysis buffers for sampleRate ahead of the first
// callback. A spectral failure is returned but analysis continues on
// amplitude alone.
func (p *Pipeline) Prepare(sampleRate int) error {
	return p.extractor.Prepare(sampleRate)
}

// Process analyzes one block and publishes the results.
func (p *Pipeline) Process(block audio.Block) {
	now := p.clock.Now()
	res := p.extractor.Process(block)

	var (
		ev rhythm.Event
		ok bool
	)
	if res.SpectralOK {
		ev, ok = p.detector.Detect(
			res.Coarse.Low, res.Coarse.Mid, res.Coarse.High,
			res.PrevCoarse.Low, res.PrevCoarse.Mid, res.PrevCoarse.High,
			now)
	} else {
		ev, ok = p.fallback.Detect(res.Amplitude, now)
	}
	if ok {
		p.events.Publish(ev)
	}

	// Structural events go last so they supersede a percussive hit
	if p.structure != nil {
		if sev, sok := p.structure.Detect(res.Amplitude, res.Coarse.Low, res.PrevCoarse.Low, now); sok {
			p.events.Publish(sev)
		}
	}

	p.levels.Store(res)
	p.blocks.Add(1)

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// ProcessInt32 analyzes interleaved 24-bit samples held in int32.
func (p *Pipeline) ProcessInt32(samples []int32, sampleRate, channels int) {
	p.scratch = audio.Int32ToFloat(p.scratch, samples)
	p.Process(audio.Block{
		Samples:    p.scratch,
		SampleRate: sampleRate,
		Channels:   channels,
	})
}

// ProcessInt16LE analyzes interleaved little-endian 16-bit PCM bytes.
func (p *Pipeline) ProcessInt16LE(data []byte, sampleRate, channels int) {
	p.scratch = audio.Int16LEToFloat(p.scratch, data)
	p.Process(audio.Block{
		Samples:    p.scratch,
		SampleRate: sampleRate,
		Channels:   channels,
	})
}

// Notify receives a value after blocks are processed. Notifications
// coalesce; read Levels and LatestEvent for the current values.
func (p *Pipeline) Notify() <-chan struct{} {
	return p.notify
}

// Levels returns the latest amplitude and fine bands
func (p *Pipeline) Levels() features.Snapshot {
	return p.levels.Load()
}

// LatestEvent returns the most recent rhythm event
func (p *Pipeline) LatestEvent() (rhythm.Event, bool) {
	return p.events.Latest()
}

// SpectralErr returns the first spectral failure hit while processing, or
// nil. Analysis carries on with amplitude alone after a failure.
func (p *Pipeline) SpectralErr() error {
	return p.extractor.Err()
}

// Blocks returns the number of blocks processed
func (p *Pipeline) Blocks() uint64 {
	return p.blocks.Load()
}
