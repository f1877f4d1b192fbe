// ABOUTME: Real-time feature extraction for the Echo pipeline
// ABOUTME: Computes RMS amplitude, coarse rhythm bands and normalized fine bands
// Package features turns PCM blocks into loudness and frequency-band
// measurements.
//
// An Extractor is built to run inside an audio callback: every buffer it
// touches is allocated when the FFT plan is prepared, so steady-state calls
// to Process neither allocate nor block. Results are published to other
// goroutines through a Levels slot.
//
// Example:
//
//	ex := features.NewExtractor(features.DefaultConfig())
//	ex.Prepare(48000)
//	res := ex.Process(block)
//	levels.Store(res)
package features
