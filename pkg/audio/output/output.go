// ABOUTME: Audio output interface definition
// ABOUTME: Pull-based playback backends fed by a sample reader
package output

// Reader supplies interleaved 24-bit samples to an output. It returns
// io.EOF once the stream has ended.
type Reader interface {
	Read(dst []int32) (int, error)
}

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Play starts pulling samples from r, replacing any current stream
	Play(r Reader) error

	// Pause suspends pulling without discarding the stream
	Pause()

	// Resume continues a paused stream
	Resume()

	// Playing reports whether the stream is still being pulled
	Playing() bool

	// BufferedFrames returns frames pulled but not yet heard
	BufferedFrames() int

	// Close releases output resources
	Close() error
}
