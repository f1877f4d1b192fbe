// ABOUTME: Tests for track playback and the analysis tap
// ABOUTME: Uses in-memory sources and a fake output that pulls on demand
package playback

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/echo-haptics/echo-go/pkg/audio/output"
	"github.com/echo-haptics/echo-go/pkg/audio/source"
)

type memSource struct {
	samples  []int32
	rate     int
	channels int
	closed   bool
}

func newMemSource(frames, rate, channels int) *memSource {
	s := make([]int32, frames*channels)
	for i := range s {
		s[i] = int32(i)
	}
	return &memSource{samples: s, rate: rate, channels: channels}
}

func (m *memSource) Read(dst []int32) (int, error) {
	if len(m.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(dst, m.samples)
	m.samples = m.samples[n:]
	return n, nil
}

func (m *memSource) SampleRate() int { return m.rate }
func (m *memSource) Channels() int   { return m.channels }
func (m *memSource) Title() string   { return "mem" }

func (m *memSource) Close() error {
	m.closed = true
	return nil
}

func (m *memSource) Duration() time.Duration {
	return time.Duration(len(m.samples)/m.channels) * time.Second / time.Duration(m.rate)
}

// stalledSource never produces samples and never ends
type stalledSource struct {
	memSource
	reads int
}

func (s *stalledSource) Read(dst []int32) (int, error) {
	s.reads++
	return 0, nil
}

type blockRecorder struct {
	blocks   int
	samples  int
	rate     int
	channels int
}

func (b *blockRecorder) ProcessInt32(samples []int32, sampleRate, channels int) {
	b.blocks++
	b.samples += len(samples)
	b.rate = sampleRate
	b.channels = channels
}

type fakeOutput struct {
	opened   int
	reader   output.Reader
	paused   bool
	playing  bool
	buffered int
	closed   int
}

func (f *fakeOutput) Open(sampleRate, channels int) error {
	f.opened++
	return nil
}

func (f *fakeOutput) Play(r output.Reader) error {
	f.reader = r
	f.playing = true
	return nil
}

func (f *fakeOutput) Pause()              { f.paused = true }
func (f *fakeOutput) Resume()             { f.paused = false }
func (f *fakeOutput) Playing() bool       { return f.playing }
func (f *fakeOutput) BufferedFrames() int { return f.buffered }

func (f *fakeOutput) Close() error {
	f.closed++
	return nil
}

// drain pulls until the reader ends, like a device would
func (f *fakeOutput) drain(t *testing.T) int {
	t.Helper()
	buf := make([]int32, 700)
	total := 0
	for i := 0; i < 10000; i++ {
		n, err := f.reader.Read(buf)
		total += n
		if errors.Is(err, io.EOF) {
			f.playing = false
			return total
		}
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
	}
	t.Fatal("reader never ended")
	return 0
}

func TestTapPassthroughAnalyzesEveryBlock(t *testing.T) {
	src := newMemSource(4096, 48000, 2)
	rec := &blockRecorder{}
	tp := newTap(src, rec, 48000, 2, 1024)

	out := &fakeOutput{reader: tp}
	total := out.drain(t)

	if total != 4096*2 {
		t.Errorf("expected %d samples, got %d", 4096*2, total)
	}
	if rec.blocks != 4 {
		t.Errorf("expected 4 analysis blocks, got %d", rec.blocks)
	}
	if rec.samples != total {
		t.Errorf("expected analysis to see every sample: %d vs %d", rec.samples, total)
	}
	if tp.Pulled() != 4096 {
		t.Errorf("expected 4096 frames pulled, got %d", tp.Pulled())
	}
}

func TestTapRemixesMonoToStereo(t *testing.T) {
	src := newMemSource(16, 48000, 1)
	tp := newTap(src, nil, 48000, 2, 8)

	buf := make([]int32, 4)
	n, err := tp.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("expected 4 samples, got %d (%v)", n, err)
	}
	want := []int32{0, 0, 1, 1}
	for i, v := range want {
		if buf[i] != v {
			t.Errorf("sample %d: expected %d, got %d", i, v, buf[i])
		}
	}
}

func TestTapResamplesToDeviceRate(t *testing.T) {
	src := newMemSource(44100, 44100, 2)
	rec := &blockRecorder{}
	tp := newTap(src, rec, 48000, 2, 1024)

	out := &fakeOutput{reader: tp}
	frames := out.drain(t) / 2

	if frames < 47900 || frames > 48000 {
		t.Errorf("expected about 48000 frames for one second, got %d", frames)
	}
	if rec.rate != 48000 || rec.channels != 2 {
		t.Errorf("expected analysis at the device format, got %dHz %dch", rec.rate, rec.channels)
	}
}

func TestTapReadKeepsWholeFrames(t *testing.T) {
	tp := newTap(newMemSource(8, 48000, 2), nil, 48000, 2, 8)

	n, err := tp.Read(make([]int32, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected one whole frame, got %d samples", n)
	}
}

func TestRemix(t *testing.T) {
	tests := []struct {
		name  string
		in    []int32
		inCh  int
		outCh int
		want  []int32
	}{
		{"same", []int32{1, 2, 3, 4}, 2, 2, []int32{1, 2, 3, 4}},
		{"mono to stereo", []int32{1, 2}, 1, 2, []int32{1, 1, 2, 2}},
		{"surround to stereo", []int32{1, 2, 3, 4, 5, 6}, 3, 2, []int32{1, 2, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := remix(make([]int32, 16), tt.in, tt.inCh, tt.outCh)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestPlayerTransport(t *testing.T) {
	out := &fakeOutput{}
	rec := &blockRecorder{}
	p := New(out, rec, Config{SampleRate: 8000, Channels: 2, BlockFrames: 256})

	if err := p.Play(); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("expected ErrNoTrack, got %v", err)
	}

	opens := 0
	err := p.Load(func() (source.Source, error) {
		opens++
		return newMemSource(8000, 8000, 2), nil
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.Duration() != time.Second {
		t.Errorf("expected 1s duration, got %s", p.Duration())
	}

	if err := p.Play(); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if p.State() != Playing {
		t.Fatalf("expected playing, got %s", p.State())
	}

	p.Pause()
	if p.State() != Paused || !out.paused {
		t.Errorf("expected paused output, got %s", p.State())
	}
	if err := p.Toggle(); err != nil || p.State() != Playing {
		t.Errorf("expected toggle to resume, got %s (%v)", p.State(), err)
	}

	out.drain(t)
	if p.State() != Ended {
		t.Errorf("expected ended after the stream drains, got %s", p.State())
	}
	if rec.blocks == 0 {
		t.Error("expected analysis blocks during playback")
	}

	// Playing again starts over from a fresh source
	if err := p.Play(); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if opens != 2 {
		t.Errorf("expected the track to be reopened, got %d opens", opens)
	}
}

func TestPlayerPosition(t *testing.T) {
	out := &fakeOutput{}
	p := New(out, nil, Config{SampleRate: 8000, Channels: 2, BlockFrames: 800})
	if err := p.Load(func() (source.Source, error) {
		return newMemSource(8000, 8000, 2), nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}

	// One 100ms block pulled, 50ms of it still buffered in the device
	if _, err := out.reader.Read(make([]int32, 1600)); err != nil {
		t.Fatal(err)
	}
	out.buffered = 400

	if got := p.Position(); got != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %s", got)
	}

	p.Stop()
	if p.Position() != 0 || p.State() != Stopped {
		t.Errorf("expected stopped at zero, got %s at %s", p.State(), p.Position())
	}
}

func TestPlayerLoadFailure(t *testing.T) {
	p := New(&fakeOutput{}, nil, DefaultConfig())

	err := p.LoadFile("/nonexistent/track.mp3", source.Options{})
	if err == nil {
		t.Fatal("expected load error")
	}
}

func TestPlayerStopClosesSource(t *testing.T) {
	src := newMemSource(100, 48000, 2)
	p := New(&fakeOutput{}, nil, DefaultConfig())
	if err := p.Load(func() (source.Source, error) { return src, nil }); err != nil {
		t.Fatal(err)
	}

	p.Stop()
	if !src.closed {
		t.Error("expected stop to close the source")
	}
}

func TestTapStalledSourceEnds(t *testing.T) {
	src := &stalledSource{memSource: memSource{rate: 48000, channels: 2}}
	rec := &blockRecorder{}
	tp := newTap(src, rec, 48000, 2, 256)

	n, err := tp.Read(make([]int32, 512))
	if n != 0 || !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected (0, io.ErrNoProgress), got (%d, %v)", n, err)
	}
	if !tp.eof.Load() {
		t.Error("expected a stalled source to count as ended")
	}
	if src.reads != maxEmptyReads {
		t.Errorf("expected %d source reads, got %d", maxEmptyReads, src.reads)
	}
	if rec.blocks != 0 {
		t.Errorf("expected no analysis of empty reads, got %d blocks", rec.blocks)
	}
}
