// ABOUTME: Linear resampler converting between sample rates
// ABOUTME: Carries the last frame across chunks so block boundaries interpolate smoothly
package resample

import "math"

// Resampler performs linear interpolation between sample rates. It keeps
// state between calls and expects one continuous stream.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position of the next output frame in input frames; -1 addresses the
	// last frame of the previous chunk
	position   float64
	lastSample []int32
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels <= 0 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Resample converts interleaved input at the input rate into output at the
// output rate and returns the number of samples written. Size output with
// OutputSamplesNeeded plus one frame; input beyond a full output is dropped.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	frame := func(i, ch int) int32 {
		if i < 0 {
			return r.lastSample[ch]
		}
		return input[i*r.channels+ch]
	}

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(math.Floor(r.position))
		if idx+1 >= inputFrames {
			break
		}

		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(frame(idx, ch))
			s2 := float64(frame(idx+1, ch))
			output[outIdx*r.channels+ch] = int32(s1*(1-frac) + s2*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.primed = true
	r.position -= float64(inputFrames)
	if r.position < -1 {
		r.position = -1
	}

	return outIdx * r.channels
}

// Reset forgets stream state, e.g. after a seek
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames) / r.ratio))
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames) * r.ratio))
	return inputFrames * r.channels
}
