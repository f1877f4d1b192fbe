// ABOUTME: Echo session API
// ABOUTME: Composition root for audio analysis, haptics, layers and the sequencer
// Package echo turns music into synchronized haptic and visual feedback.
//
// A Session owns every service: the analysis Pipeline that runs inside the
// audio callback, the haptic Service, the layer Engine and the step
// Sequencer. Mutable state lives on a single run loop; audio callbacks hand
// results over without blocking.
//
// Example:
//
//	s := echo.New(echo.Config{Engine: transducer})
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	// From the audio callback:
//	s.Pipeline().Process(block)
//
//	// From the UI:
//	amp, bands := s.Levels()
//	s.AddLayer(haptics.Deep)
package echo
