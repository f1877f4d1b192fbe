// ABOUTME: FLAC file source
// ABOUTME: Decodes frames with mewkiz/flac and carries partial frames across reads
package source

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mewkiz/flac"
)

// FLAC reads from a FLAC file
type FLAC struct {
	file     *os.File
	stream   *flac.Stream
	opts     Options
	title    string
	rate     int
	channels int
	bitDepth int
	total    uint64

	// interleaved samples of the current frame not yet returned
	pending []int32
	offset  int
}

// NewFLAC opens a FLAC file
func NewFLAC(path string, opts Options) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &FLAC{
		file:     f,
		stream:   stream,
		opts:     opts,
		title:    titleOf(path),
		rate:     int(info.SampleRate),
		channels: int(info.NChannels),
		bitDepth: int(info.BitsPerSample),
		total:    info.NSamples,
	}
	log.Printf("source: loaded FLAC %q (%d Hz, %d channels, %d bit, %s)",
		s.title, s.rate, s.channels, s.bitDepth, s.Duration())
	return s, nil
}

func (s *FLAC) Read(samples []int32) (int, error) {
	written := 0
	for written < len(samples) {
		if s.offset < len(s.pending) {
			n := copy(samples[written:], s.pending[s.offset:])
			s.offset += n
			written += n
			continue
		}

		if err := s.nextFrame(); err != nil {
			if err == io.EOF && written > 0 {
				return written, nil
			}
			return written, err
		}
	}
	return written, nil
}

func (s *FLAC) nextFrame() error {
	frame, err := s.stream.ParseNext()
	if err == io.EOF && s.opts.Loop {
		if err := s.rewind(); err != nil {
			return err
		}
		frame, err = s.stream.ParseNext()
	}
	if err != nil {
		return err
	}

	size := int(frame.BlockSize) * s.channels
	if cap(s.pending) < size {
		s.pending = make([]int32, size)
	}
	s.pending = s.pending[:size]
	s.offset = 0

	for i := 0; i < int(frame.BlockSize); i++ {
		for ch := 0; ch < s.channels; ch++ {
			s.pending[i*s.channels+ch] = to24Bit(frame.Subframes[ch].Samples[i], s.bitDepth)
		}
	}
	return nil
}

func (s *FLAC) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLAC) SampleRate() int { return s.rate }
func (s *FLAC) Channels() int   { return s.channels }
func (s *FLAC) Title() string   { return s.title }

func (s *FLAC) Duration() time.Duration {
	return framesToDuration(int64(s.total), s.rate)
}

func (s *FLAC) Close() error {
	return s.file.Close()
}
