// ABOUTME: Feature extractor running inside the audio callback
// ABOUTME: RMS loudness plus windowed FFT band energies with per-band normalization
package features

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
	"github.com/echo-haptics/echo-go/pkg/audio"
)

// ErrFFTSize is returned for FFT sizes that are not a power of two.
var ErrFFTSize = errors.New("fft size must be a power of two")

// Config configures an Extractor.
type Config struct {
	// FFTSize is the analysis frame length (power of two, default 1024)
	FFTSize int

	// Gain scales RMS before clamping to [0, 1] (default 2.0)
	Gain float64

	// Decay is the per-block decay of each fine band's rolling max (default 0.995)
	Decay float64

	// Floor is the smallest divisor used for normalization (default 1e-6)
	Floor float64

	// Exponent is the sub-linear curve applied after normalization (default 0.6)
	Exponent float64
}

// DefaultConfig returns the extractor defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:  1024,
		Gain:     2.0,
		Decay:    0.995,
		Floor:    1e-6,
		Exponent: 0.6,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FFTSize <= 0 {
		c.FFTSize = d.FFTSize
	}
	if c.Gain <= 0 {
		c.Gain = d.Gain
	}
	if c.Decay <= 0 || c.Decay >= 1 {
		c.Decay = d.Decay
	}
	if c.Floor <= 0 {
		c.Floor = d.Floor
	}
	if c.Exponent <= 0 {
		c.Exponent = d.Exponent
	}
	return c
}

// Result is the output of one Process call. Slices are owned by the
// Extractor and are overwritten by the next call.
type Result struct {
	Amplitude  float64
	Bands      []float64 // NumFineBands normalized values in [0, 1]
	Coarse     Coarse
	PrevCoarse Coarse
	Magnitudes []float64 // FFTSize/2+1 bins
	SpectralOK bool
}

// Extractor computes amplitude and band energies from PCM blocks.
type Extractor struct {
	cfg Config

	// newPlan is swapped in tests to simulate FFT setup failure
	newPlan func(n int) (*algofft.Plan[complex128], error)

	sampleRate int
	spectralOK bool
	failLogged bool

	// err holds the first spectral failure seen by Process. It is written
	// once, before failed is set.
	err    error
	failed atomic.Bool

	plan   *algofft.Plan[complex128]
	window []float64
	mono   []float64
	frame  []float64
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
	mags   []float64
	square []float64
	bands  layout

	fineRaw    [NumFineBands]float64
	rollingMax [NumFineBands]float64
	fineNorm   [NumFineBands]float64

	coarse Coarse
	prev   Coarse
}

// NewExtractor creates an extractor. The FFT plan is built lazily on the
// first block or by Prepare.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		cfg:     cfg.withDefaults(),
		newPlan: algofft.NewPlan64,
	}
}

// Prepare builds the FFT plan, window and band layout for sampleRate. Calling
// it before audio starts keeps allocation out of the callback.
func (e *Extractor) Prepare(sampleRate int) error {
	if err := e.configure(sampleRate); err != nil {
		if !e.failLogged {
			log.Printf("features: spectral analysis unavailable, bands disabled: %v", err)
			e.failLogged = true
		}
		return err
	}

	log.Printf("features: analysis prepared: %dHz, fft=%d, %.1fHz/bin",
		sampleRate, e.cfg.FFTSize, float64(sampleRate)/float64(e.cfg.FFTSize))
	return nil
}

// configure is Prepare without logging, for use from the audio callback.
func (e *Extractor) configure(sampleRate int) error {
	e.sampleRate = sampleRate
	e.spectralOK = false

	if err := e.setup(sampleRate); err != nil {
		e.clearSpectral()
		return err
	}

	e.spectralOK = true
	return nil
}

func (e *Extractor) setup(sampleRate int) error {
	n := e.cfg.FFTSize
	if n&(n-1) != 0 {
		return fmt.Errorf("%w: %d", ErrFFTSize, n)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	plan, err := e.newPlan(n)
	if err != nil {
		return fmt.Errorf("fft plan: %w", err)
	}

	half := n/2 + 1
	e.plan = plan
	e.window = window.Generate(window.TypeHann, n, window.WithPeriodic())
	e.mono = make([]float64, n)
	e.frame = make([]float64, n)
	e.in = make([]complex128, n)
	e.out = make([]complex128, n)
	e.re = make([]float64, half)
	e.im = make([]float64, half)
	e.mags = make([]float64, half)
	e.bands = newLayout(sampleRate, n)

	for i := range e.rollingMax {
		e.rollingMax[i] = 0
	}
	e.coarse = Coarse{}
	e.prev = Coarse{}
	return nil
}

// SpectralOK reports whether the spectral path is available.
func (e *Extractor) SpectralOK() bool {
	return e.spectralOK
}

// Err returns the first spectral failure hit while processing, for callers
// outside the audio callback to report. Process itself never logs.
func (e *Extractor) Err() error {
	if !e.failed.Load() {
		return nil
	}
	return e.err
}

func (e *Extractor) fail(err error) {
	if e.failed.Load() {
		return
	}
	e.err = err
	e.failed.Store(true)
}

// Process analyzes one block.
func (e *Extractor) Process(block audio.Block) Result {
	amp := e.amplitude(block.Samples)

	if block.SampleRate > 0 && block.SampleRate != e.sampleRate {
		if err := e.configure(block.SampleRate); err != nil {
			e.fail(err)
		}
	}

	if !e.spectralOK {
		e.clearSpectral()
		return Result{
			Amplitude: amp,
			Bands:     e.fineNorm[:],
		}
	}

	if err := e.transform(block); err != nil {
		e.spectralOK = false
		e.fail(fmt.Errorf("fft: %w", err))
		e.clearSpectral()
		return Result{
			Amplitude: amp,
			Bands:     e.fineNorm[:],
		}
	}

	e.prev = e.coarse
	e.coarse = Coarse{
		Low:  e.bands.low.mean(e.mags),
		Mid:  e.bands.mid.mean(e.mags),
		High: e.bands.high.mean(e.mags),
	}
	e.normalize()

	return Result{
		Amplitude:  amp,
		Bands:      e.fineNorm[:],
		Coarse:     e.coarse,
		PrevCoarse: e.prev,
		Magnitudes: e.mags,
		SpectralOK: true,
	}
}

// amplitude computes clamp(rms * gain, 0, 1)
func (e *Extractor) amplitude(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	if cap(e.square) < len(samples) {
		// Only grows when the host changes its buffer size
		e.square = make([]float64, len(samples))
	}
	buf := e.square[:len(samples)]
	for i, s := range samples {
		buf[i] = float64(s)
	}

	meanSquare := vecmath.DotProduct(buf, buf) / float64(len(buf))
	return clamp(math.Sqrt(meanSquare)*e.cfg.Gain, 0, 1)
}

// transform mixes the newest FFTSize frames to mono, windows them and runs
// the forward FFT into e.mags.
func (e *Extractor) transform(block audio.Block) error {
	n := e.cfg.FFTSize
	channels := block.Channels
	if channels <= 0 {
		channels = 1
	}

	frames := block.FrameCount()
	if frames*channels > len(block.Samples) {
		frames = len(block.Samples) / channels
	}
	take := frames
	if take > n {
		take = n
	}
	start := frames - take

	for i := range e.mono {
		e.mono[i] = 0
	}
	for i := 0; i < take; i++ {
		base := (start + i) * channels
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(block.Samples[base+ch])
		}
		e.mono[i] = sum / float64(channels)
	}

	vecmath.MulBlock(e.frame, e.mono, e.window)
	for i, v := range e.frame {
		e.in[i] = complex(v, 0)
	}

	if err := e.plan.Forward(e.out, e.in); err != nil {
		return err
	}

	for k := range e.mags {
		e.re[k] = real(e.out[k])
		e.im[k] = imag(e.out[k])
	}
	vecmath.Magnitude(e.mags, e.re, e.im)
	vecmath.ScaleBlockInPlace(e.mags, 2/float64(n))
	return nil
}

// normalize updates each fine band's rolling max and writes the
// visualization values. Bands never share a maximum.
func (e *Extractor) normalize() {
	for i, r := range e.bands.fine {
		current := r.mean(e.mags)
		e.fineRaw[i] = current

		peak := math.Max(e.rollingMax[i]*e.cfg.Decay, current)
		e.rollingMax[i] = peak

		v := current / math.Max(peak, e.cfg.Floor)
		e.fineNorm[i] = clamp(math.Pow(v, e.cfg.Exponent), 0, 1)
	}
}

func (e *Extractor) clearSpectral() {
	for i := range e.fineNorm {
		e.fineNorm[i] = 0
		e.fineRaw[i] = 0
	}
	e.coarse = Coarse{}
	e.prev = Coarse{}
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
