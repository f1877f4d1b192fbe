// ABOUTME: WAV file source
// ABOUTME: Streams PCM chunks through go-audio/wav
package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("invalid WAV file")

// WAV reads from a PCM WAV file
type WAV struct {
	file     *os.File
	decoder  *wav.Decoder
	opts     Options
	title    string
	rate     int
	channels int
	bitDepth int
	duration time.Duration
	buf      *goaudio.IntBuffer
}

// NewWAV opens a WAV file
func NewWAV(path string, opts Options) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find PCM data: %w", err)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	var duration time.Duration
	if frameSize := format.NumChannels * ((bitDepth + 7) / 8); frameSize > 0 {
		duration = framesToDuration(int64(decoder.PCMSize/frameSize), format.SampleRate)
	}

	s := &WAV{
		file:     f,
		decoder:  decoder,
		opts:     opts,
		title:    titleOf(path),
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		duration: duration,
		buf:      &goaudio.IntBuffer{Format: format},
	}
	log.Printf("source: loaded WAV %q (%d Hz, %d channels, %d bit, %s)",
		s.title, s.rate, s.channels, s.bitDepth, s.duration)
	return s, nil
}

func (s *WAV) Read(samples []int32) (int, error) {
	if cap(s.buf.Data) < len(samples) {
		s.buf.Data = make([]int, len(samples))
	}
	s.buf.Data = s.buf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("wav decode: %w", err)
	}
	if n == 0 {
		if !s.opts.Loop {
			return 0, io.EOF
		}
		if err := s.decoder.Rewind(); err != nil {
			return 0, fmt.Errorf("failed to rewind: %w", err)
		}
		return 0, nil
	}

	for i := 0; i < n; i++ {
		v := int32(s.buf.Data[i])
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = to24Bit(v, s.bitDepth)
	}
	return n, nil
}

func (s *WAV) SampleRate() int         { return s.rate }
func (s *WAV) Channels() int           { return s.channels }
func (s *WAV) Title() string           { return s.title }
func (s *WAV) Duration() time.Duration { return s.duration }
func (s *WAV) Close() error            { return s.file.Close() }
