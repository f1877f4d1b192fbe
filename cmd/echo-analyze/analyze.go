// ABOUTME: Offline pipeline run and report formatting
// ABOUTME: Drives analysis with a fake clock advanced in audio time
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/echo-haptics/echo-go/pkg/audio"
	"github.com/echo-haptics/echo-go/pkg/audio/source"
	"github.com/echo-haptics/echo-go/pkg/echo"
	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jonboulle/clockwork"
)

// timedEvent is a rhythm event with its offset into the track
type timedEvent struct {
	At    time.Duration
	Event rhythm.Event
}

type report struct {
	Title      string
	SampleRate int
	Length     time.Duration
	Blocks     int
	SpectralOK bool

	Events []timedEvent
	Counts map[rhythm.Category]int

	MeanAmplitude float64
	MeanBands     [features.NumFineBands]float64
}

// analyze reads src to the end in blocks of blockFrames
func analyze(src source.Source, blockFrames int) (*report, error) {
	if blockFrames <= 0 {
		blockFrames = 1024
	}
	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid source format: %dHz %dch", rate, channels)
	}

	clock := clockwork.NewFakeClock()
	start := clock.Now()
	pipeline := echo.NewPipeline(echo.PipelineConfig{}, clock)
	spectralErr := pipeline.Prepare(rate)

	rep := &report{
		Title:      src.Title(),
		SampleRate: rate,
		SpectralOK: spectralErr == nil,
		Counts:     make(map[rhythm.Category]int),
	}

	buf := make([]int32, blockFrames*channels)
	blockTime := time.Duration(blockFrames) * time.Second / time.Duration(rate)
	var lastSeq uint64
	var frames int64

	for {
		n, err := src.Read(buf)
		if n > 0 {
			pipeline.ProcessInt32(buf[:n], rate, channels)
			frames += int64(n / channels)
			rep.Blocks++

			snap := pipeline.Levels()
			rep.MeanAmplitude += snap.Amplitude
			for i, v := range snap.Bands {
				rep.MeanBands[i] += v
			}

			if ev, ok := pipeline.LatestEvent(); ok && ev.Seq != lastSeq {
				lastSeq = ev.Seq
				rep.Events = append(rep.Events, timedEvent{At: ev.Time.Sub(start), Event: ev})
				rep.Counts[ev.Category]++
			}
			clock.Advance(blockTime)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.Title(), err)
		}
	}

	if rep.Blocks > 0 {
		rep.MeanAmplitude /= float64(rep.Blocks)
		for i := range rep.MeanBands {
			rep.MeanBands[i] /= float64(rep.Blocks)
		}
	}
	rep.Length = time.Duration(frames) * time.Second / time.Duration(rate)
	return rep, nil
}

func (r *report) printEvents(w io.Writer) {
	for _, te := range r.Events {
		p := haptics.Synthesize(haptics.ForRhythm(te.Event.Category), te.Event.Intensity)
		fmt.Fprintf(w, "%9s  %-5s  intensity=%.2f  haptic=%s (%s, peak %.2f)\n",
			te.At.Round(time.Millisecond), te.Event.Category, te.Event.Intensity,
			p.Category, p.Duration(), p.PeakIntensity())
	}
}

func (r *report) printSummary(w io.Writer) {
	fmt.Fprintf(w, "\n%s: %s at %dHz, %d blocks\n", r.Title, r.Length.Round(time.Millisecond), r.SampleRate, r.Blocks)
	if !r.SpectralOK {
		fmt.Fprintln(w, "spectral analysis unavailable; amplitude fallback used")
	}

	fmt.Fprintf(w, "events: %d", len(r.Events))
	for c := rhythm.Kick; c <= rhythm.Drop; c++ {
		if n := r.Counts[c]; n > 0 {
			fmt.Fprintf(w, "  %s=%d", c, n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "mean amplitude: %.3f\n", r.MeanAmplitude)
	fmt.Fprint(w, "mean bands:    ")
	for _, v := range r.MeanBands {
		fmt.Fprintf(w, " %.2f", v)
	}
	fmt.Fprintln(w)
}

// renderHaptics mixes the drive signal of every event into a mono 16-bit WAV
func renderHaptics(path string, r *report) error {
	total := int(r.Length * time.Duration(r.SampleRate) / time.Second)
	mix := make([]float32, total)

	var scratch []float32
	for _, te := range r.Events {
		p := haptics.Synthesize(haptics.ForRhythm(te.Event.Category), te.Event.Intensity)
		scratch = haptics.Render(p, r.SampleRate, scratch)

		offset := int(te.At * time.Duration(r.SampleRate) / time.Second)
		for i, s := range scratch {
			if offset+i >= len(mix) {
				break
			}
			mix[offset+i] += s
		}
	}

	data := make([]int, len(mix))
	for i, s := range mix {
		data[i] = int(audio.SampleToInt16(audio.SampleFromFloat(s)))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, r.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: r.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return nil
}
