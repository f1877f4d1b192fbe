// ABOUTME: MP3 file source
// ABOUTME: Decodes with go-mp3, which always yields 16-bit stereo
package source

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/echo-haptics/echo-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 reads from an MP3 file
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	opts    Options
	title   string
	buf     []byte
}

// NewMP3 opens an MP3 file
func NewMP3(path string, opts Options) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := &MP3{
		file:    f,
		decoder: decoder,
		opts:    opts,
		title:   titleOf(path),
	}
	log.Printf("source: loaded MP3 %q (%d Hz, %s)", s.title, decoder.SampleRate(), s.Duration())
	return s, nil
}

func (s *MP3) Read(samples []int32) (int, error) {
	// go-mp3 yields 2 bytes per sample
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(s.decoder, buf)
	count := n / 2
	for i := 0; i < count; i++ {
		samples[i] = audio.SampleFromInt16(int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8))
	}

	switch {
	case err == nil:
		return count, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		if !s.opts.Loop {
			if count > 0 {
				return count, nil
			}
			return 0, io.EOF
		}
		if _, serr := s.decoder.Seek(0, io.SeekStart); serr != nil {
			return count, fmt.Errorf("failed to seek to start: %w", serr)
		}
		return count, nil
	default:
		return count, err
	}
}

func (s *MP3) SampleRate() int { return s.decoder.SampleRate() }
func (s *MP3) Channels() int   { return 2 }
func (s *MP3) Title() string   { return s.title }

// Duration derives the length from the decoded byte count
func (s *MP3) Duration() time.Duration {
	length := s.decoder.Length()
	if length <= 0 {
		return 0
	}
	return framesToDuration(length/4, s.decoder.SampleRate())
}

func (s *MP3) Close() error {
	return s.file.Close()
}
