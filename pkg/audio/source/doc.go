// ABOUTME: Audio sources for analysis and playback
// ABOUTME: File decoders plus a synthetic metronome
// Package source provides PCM sources as interleaved 24-bit samples held in
// int32.
//
// Supported sources:
//   - MP3 files (go-mp3)
//   - FLAC files (mewkiz/flac)
//   - WAV files (go-audio/wav)
//   - Metronome: a synthetic kick/snare/hat pattern
//
// Example:
//
//	src, err := source.Open("track.mp3", source.Options{})
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	n, err := src.Read(samples)
package source
