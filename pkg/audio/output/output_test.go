// ABOUTME: Audio output tests
// ABOUTME: Verifies the volume stage and the int16 pull adapter without a device
package output

import (
	"errors"
	"io"
	"testing"

	"github.com/echo-haptics/echo-go/pkg/audio"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestApplyVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		muted  bool
		in     int32
		want   int32
	}{
		{"full", 100, false, 1000, 1000},
		{"half", 50, false, 1000, 500},
		{"muted", 100, true, 1000, 0},
		{"zero", 0, false, -4000, 0},
		{"negative half", 50, false, -4000, -2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := []int32{tt.in}
			applyVolume(s, tt.volume, tt.muted)
			if s[0] != tt.want {
				t.Errorf("expected %d, got %d", tt.want, s[0])
			}
		})
	}
}

func TestSetVolumeClamps(t *testing.T) {
	o := NewOto()

	o.SetVolume(150)
	if o.GetVolume() != 100 {
		t.Errorf("expected 100, got %d", o.GetVolume())
	}
	o.SetVolume(-5)
	if o.GetVolume() != 0 {
		t.Errorf("expected 0, got %d", o.GetVolume())
	}
	o.SetMuted(true)
	if !o.IsMuted() {
		t.Error("expected muted")
	}
}

type sliceReader struct {
	samples []int32
	err     error
}

func (s *sliceReader) Read(dst []int32) (int, error) {
	if len(s.samples) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n := copy(dst, s.samples)
	s.samples = s.samples[n:]
	return n, nil
}

func TestPCMReaderEncodesInt16(t *testing.T) {
	o := NewOto()
	o.SetVolume(50)

	src := &sliceReader{samples: []int32{audio.Max24Bit, -256 * 100}}
	p := &pcmReader{src: src, out: o}

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}

	first := int16(uint16(buf[0]) | uint16(buf[1])<<8)
	second := int16(uint16(buf[2]) | uint16(buf[3])<<8)
	if first != audio.SampleToInt16(audio.Max24Bit/2) {
		t.Errorf("expected half-scale first sample, got %d", first)
	}
	if second != -50 {
		t.Errorf("expected -50, got %d", second)
	}

	if _, err := p.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end, got %v", err)
	}
}

func TestPCMReaderEndsOnSourceError(t *testing.T) {
	p := &pcmReader{src: &sliceReader{err: errors.New("disk gone")}, out: NewOto()}

	_, err := p.Read(make([]byte, 16))
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected source errors to end the stream, got %v", err)
	}
}
