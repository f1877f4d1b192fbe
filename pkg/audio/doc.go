// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Block types and sample conversion functions
// Package audio provides the sample types shared by Echo's sources, outputs
// and analysis pipeline.
//
// Sources and outputs exchange interleaved int32 samples left-justified in a
// 24-bit range. The analysis pipeline consumes Block values holding float32
// samples in [-1, 1]:
//   - Format: sample rate, channel count and bit depth of a stream
//   - Block: one real-time callback's worth of PCM
//
// Example:
//
//	block := audio.Block{SampleRate: 48000, Channels: 2}
//	block.Samples = audio.Int32ToFloat(scratch, samples)
//	block.Frames = len(block.Samples) / block.Channels
package audio
