// ABOUTME: Haptic pattern library and playback engines
// ABOUTME: Synthesizes vibration envelopes and plays them on tactile backends
// Package haptics turns rhythm categories and textures into fully specified
// vibration patterns and plays them.
//
// Synthesize is a pure function from a Category and base intensity to a
// Pattern. Patterns are handed to an Engine through a Service, which owns
// the restart policy for transient backend failures:
//   - Nop: no tactile hardware, visuals only
//   - Transducer: renders patterns as low-frequency drive audio for bass
//     shakers and tactile transducers
//
// Example:
//
//	svc := haptics.NewService(haptics.NewTransducer(otoCtx, haptics.TransducerConfig{}))
//	svc.Start()
//	svc.PlayTexture(haptics.Kick, 0.8)
package haptics
