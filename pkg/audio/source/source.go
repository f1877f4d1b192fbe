// ABOUTME: Source interface and file dispatch by extension
// ABOUTME: Sources yield interleaved 24-bit samples and report their duration
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupported is returned for files with an unknown extension.
var ErrUnsupported = errors.New("unsupported audio format")

// Source provides PCM audio samples
type Source interface {
	// Read fills samples with interleaved 24-bit values and returns the
	// number written. It returns io.EOF once the source is exhausted.
	Read(samples []int32) (int, error)
	SampleRate() int
	Channels() int
	// Duration returns the total length, or zero when unknown or endless
	Duration() time.Duration
	Title() string
	Close() error
}

// Options configures file sources
type Options struct {
	// Loop restarts the file at end of stream instead of returning io.EOF
	Loop bool
}

// Open creates a source for path based on its extension.
func Open(path string, opts Options) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3(path, opts)
	case ".flac":
		return NewFLAC(path, opts)
	case ".wav", ".wave":
		return NewWAV(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav)", ErrUnsupported, ext)
	}
}

// titleOf derives a display title from a file name
func titleOf(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// framesToDuration converts a frame count at rate to a duration
func framesToDuration(frames int64, rate int) time.Duration {
	if frames <= 0 || rate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

// to24Bit scales a sample of the given bit depth into the 24-bit range
func to24Bit(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}
