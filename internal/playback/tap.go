// ABOUTME: Pull-side tap between a source and the output device
// ABOUTME: Remixes, resamples and analyzes each block on its way to the speaker
package playback

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/echo-haptics/echo-go/pkg/audio/resample"
	"github.com/echo-haptics/echo-go/pkg/audio/source"
)

// maxEmptyReads is how many (0, nil) source reads in a row end playback
const maxEmptyReads = 100

// Analyzer receives every block that reaches the output
type Analyzer interface {
	ProcessInt32(samples []int32, sampleRate, channels int)
}

// tap implements output.Reader. It runs on the output's pull goroutine and
// allocates nothing after construction.
type tap struct {
	src      source.Source
	analyzer Analyzer

	rate     int
	channels int
	frames   int

	resampler *resample.Resampler
	in        []int32 // source layout
	mixed     []int32 // source rate, output channels
	pending   []int32 // output layout, not yet pulled
	block     []int32
	empty     int // consecutive empty source reads

	// read by the player goroutine
	eof atomic.Bool

	// output frames handed to the device
	pulled atomic.Int64
}

func newTap(src source.Source, analyzer Analyzer, rate, channels, blockFrames int) *tap {
	t := &tap{
		src:      src,
		analyzer: analyzer,
		rate:     rate,
		channels: channels,
		frames:   blockFrames,
	}

	inCh := src.Channels()
	if inCh <= 0 {
		inCh = 1
	}
	t.in = make([]int32, blockFrames*inCh)
	t.mixed = make([]int32, blockFrames*channels)

	size := blockFrames * channels
	if src.SampleRate() != rate {
		t.resampler = resample.New(src.SampleRate(), rate, channels)
		size = t.resampler.OutputSamplesNeeded(len(t.mixed)) + 2*channels
	}
	t.block = make([]int32, size)
	return t
}

// Read copies output samples into dst, producing a new analysis block
// whenever the previous one is used up.
func (t *tap) Read(dst []int32) (int, error) {
	for len(t.pending) == 0 {
		if t.eof.Load() {
			return 0, io.EOF
		}
		if err := t.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(dst, t.pending)
	n -= n % t.channels
	if n == 0 {
		// dst cannot hold a whole frame
		return 0, nil
	}
	t.pending = t.pending[n:]
	t.pulled.Add(int64(n / t.channels))
	return n, nil
}

// fill reads one source block, converts it and analyzes the result
func (t *tap) fill() error {
	n, err := t.src.Read(t.in)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return err
		}
		t.eof.Store(true)
	}

	inCh := len(t.in) / t.frames
	frames := n / inCh
	if frames == 0 {
		if err == nil {
			t.empty++
			if t.empty >= maxEmptyReads {
				t.eof.Store(true)
				return io.ErrNoProgress
			}
		}
		return nil
	}
	t.empty = 0

	mixed := remix(t.mixed, t.in[:frames*inCh], inCh, t.channels)

	out := mixed
	if t.resampler != nil {
		k := t.resampler.Resample(mixed, t.block)
		out = t.block[:k]
	}
	if len(out) == 0 {
		return nil
	}

	if t.analyzer != nil {
		t.analyzer.ProcessInt32(out, t.rate, t.channels)
	}
	t.pending = out
	return nil
}

// Pulled returns output frames handed to the device so far
func (t *tap) Pulled() int64 {
	return t.pulled.Load()
}

// remix maps inCh interleaved channels onto outCh. Missing output channels
// repeat the last input channel; surplus input channels are dropped.
func remix(dst, src []int32, inCh, outCh int) []int32 {
	frames := len(src) / inCh
	dst = dst[:frames*outCh]
	if inCh == outCh {
		copy(dst, src)
		return dst
	}

	for f := 0; f < frames; f++ {
		for c := 0; c < outCh; c++ {
			from := c
			if from >= inCh {
				from = inCh - 1
			}
			dst[f*outCh+c] = src[f*inCh+from]
		}
	}
	return dst
}
