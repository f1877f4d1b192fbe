// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the pull-based Output interface and its oto implementation
// Package output provides audio playback interfaces.
//
// Outputs pull interleaved 24-bit samples from a Reader, which lets the
// caller observe every block on its way to the speaker. oto allows one
// context per process; Context hands the same one to every user.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Play(reader)
package output
