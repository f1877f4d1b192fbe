// ABOUTME: Haptic service wrapping an engine with a restart policy
// ABOUTME: Degrades silently without hardware and restarts after transient stops
package haptics

import (
	"errors"
	"fmt"
	"log"
	"slices"
)

// Stats tracks service activity
type Stats struct {
	Played    uint64
	Failed    uint64
	Restarts  uint64
	Available bool
}

// Service plays patterns on an Engine. It is not safe for concurrent use;
// it is owned by the run loop.
type Service struct {
	engine     Engine
	available  bool
	restarting bool
	listeners  []func()
	replayed   []Category
	stats      Stats
}

// NewService wraps engine. Call Start before playing.
func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// Start starts the engine. Missing hardware is not an error: the service
// keeps running and drops every play.
func (s *Service) Start() error {
	err := s.engine.Start()
	switch {
	case err == nil:
		s.available = true
		return nil
	case errors.Is(err, ErrUnavailable):
		s.available = false
		log.Printf("haptics: unavailable, continuing with visuals only")
		return nil
	default:
		s.available = false
		return fmt.Errorf("haptics start: %w", err)
	}
}

// Available reports whether patterns reach hardware
func (s *Service) Available() bool {
	return s.available
}

// OnRestart registers fn to run after the engine restarts. Listeners may
// play patterns from fn.
func (s *Service) OnRestart(fn func()) {
	s.listeners = append(s.listeners, fn)
}

// PlayTexture synthesizes and plays one library entry
func (s *Service) PlayTexture(c Category, intensity float64) error {
	return s.Play(Synthesize(c, intensity))
}

// StopTexture stops every pattern currently playing
func (s *Service) StopTexture() error {
	if !s.available {
		return nil
	}
	if err := s.engine.StopAll(); err != nil {
		return fmt.Errorf("haptics stop: %w", err)
	}
	return nil
}

// Play plays p. A stopped engine is restarted and the play retried once.
func (s *Service) Play(p Pattern) error {
	if !s.available {
		return nil
	}

	err := s.engine.Play(p)
	if err == nil {
		s.stats.Played++
		if s.restarting {
			s.replayed = append(s.replayed, p.Category)
		}
		return nil
	}

	switch {
	case errors.Is(err, ErrUnavailable):
		s.available = false
		log.Printf("haptics: hardware went away, continuing with visuals only")
		return nil

	case errors.Is(err, ErrEngineStopped) && !s.restarting:
		log.Printf("%v, restarting engine", err)
		if rerr := s.restart(); rerr != nil {
			s.stats.Failed++
			return rerr
		}
		// A listener already played this category, typically the layer
		// whose play triggered the restart.
		if slices.Contains(s.replayed, p.Category) {
			return nil
		}
		if err := s.engine.Play(p); err != nil {
			s.stats.Failed++
			return fmt.Errorf("haptics play after restart: %w", err)
		}
		s.stats.Played++
		return nil
	}

	s.stats.Failed++
	return fmt.Errorf("haptics play %s: %w", p.Category, err)
}

func (s *Service) restart() error {
	s.restarting = true
	s.replayed = s.replayed[:0]
	defer func() { s.restarting = false }()

	if err := s.engine.Start(); err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.available = false
		}
		return fmt.Errorf("haptics restart: %w", err)
	}
	s.stats.Restarts++

	for _, fn := range s.listeners {
		fn()
	}
	return nil
}

// Close stops the engine
func (s *Service) Close() error {
	s.available = false
	return s.engine.Close()
}

// Stats returns a copy of the service counters
func (s *Service) Stats() Stats {
	st := s.stats
	st.Available = s.available
	return st
}
