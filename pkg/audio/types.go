// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, sample blocks and sample conversions
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Block is one callback's worth of interleaved PCM. It is only valid for the
// duration of the call that received it.
type Block struct {
	Samples    []float32 // interleaved, [-1, 1]
	SampleRate int
	Channels   int
	Frames     int
}

// FrameCount returns Frames, deriving it from the sample count when unset.
func (b Block) FrameCount() int {
	if b.Frames > 0 {
		return b.Frames
	}
	if b.Channels <= 0 {
		return len(b.Samples)
	}
	return len(b.Samples) / b.Channels
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleToFloat converts a 24-bit int32 sample to [-1, 1]
func SampleToFloat(sample int32) float32 {
	return float32(sample) / float32(Max24Bit)
}

// SampleFromFloat converts a float sample to the 24-bit range with clipping
func SampleFromFloat(sample float32) int32 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	return int32(sample * float32(Max24Bit))
}

// Int32ToFloat converts samples into dst, growing it only when it is too small.
// The returned slice aliases dst when capacity allows.
func Int32ToFloat(dst []float32, samples []int32) []float32 {
	if cap(dst) < len(samples) {
		dst = make([]float32, len(samples))
	}
	dst = dst[:len(samples)]
	for i, s := range samples {
		dst[i] = SampleToFloat(s)
	}
	return dst
}

// PutInt16LE writes samples as little-endian 16-bit PCM into out and returns
// the number of bytes written. out must hold 2 bytes per sample.
func PutInt16LE(out []byte, samples []int32) int {
	n := 0
	for _, s := range samples {
		if n+1 >= len(out) {
			break
		}
		v := SampleToInt16(s)
		out[n] = byte(v)
		out[n+1] = byte(v >> 8)
		n += 2
	}
	return n
}

// Int16LEToFloat decodes little-endian 16-bit PCM bytes into dst.
func Int16LEToFloat(dst []float32, data []byte) []float32 {
	n := len(data) / 2
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		v := int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		dst[i] = float32(v) / 32768
	}
	return dst
}
