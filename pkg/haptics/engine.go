// ABOUTME: Haptic engine interface, errors and the no-hardware backend
// ABOUTME: Engines play patterns; the Service owns restart policy
package haptics

import (
	"errors"
	"log"
	"sync"
)

var (
	// ErrUnavailable means there is no tactile hardware. Callers degrade to
	// visuals only.
	ErrUnavailable = errors.New("haptics: hardware unavailable")

	// ErrEngineStopped means the backend stopped and must be restarted
	// before it can play again.
	ErrEngineStopped = errors.New("haptics: engine stopped")
)

// Engine plays patterns on a tactile backend
type Engine interface {
	Start() error
	Play(p Pattern) error
	StopAll() error
	Close() error
}

// Nop is the backend used when no tactile hardware is present. Start
// reports ErrUnavailable; plays are dropped.
type Nop struct {
	once sync.Once
}

// NewNop creates a no-op engine
func NewNop() *Nop {
	return &Nop{}
}

func (n *Nop) Start() error {
	n.once.Do(func() {
		log.Printf("haptics: no tactile output configured")
	})
	return ErrUnavailable
}

func (n *Nop) Play(Pattern) error { return nil }
func (n *Nop) StopAll() error     { return nil }
func (n *Nop) Close() error       { return nil }
