// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded tracks to the playback device rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation and keeps the last frame of each chunk so a
// stream resampled in blocks has no seams. Handles both upsampling and
// downsampling.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	n := r.Resample(inputSamples, outputSamples)
package resample
