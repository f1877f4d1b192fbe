// ABOUTME: TUI initialization and status plumbing
// ABOUTME: Wraps the bubbletea program and forwards status without blocking
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TUI manages the bubbletea program
type TUI struct {
	program *tea.Program
	updates chan StatusMsg
	done    chan struct{}
}

// New creates a TUI driving ctrl
func New(ctrl Controller) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(ctrl), tea.WithAltScreen()),
		updates: make(chan StatusMsg, 10),
		done:    make(chan struct{}),
	}
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	go func() {
		for {
			select {
			case status := <-t.updates:
				t.program.Send(status)
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	close(t.done)
	return err
}

// Update sends a status update to the TUI
func (t *TUI) Update(status StatusMsg) {
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Quit stops the program
func (t *TUI) Quit() {
	t.program.Quit()
}
