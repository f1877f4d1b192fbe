// ABOUTME: Single-threaded cooperative task loop
// ABOUTME: Owns all mutable playback state; other goroutines post work to it
package runloop

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("runloop: closed")

const queueSize = 256

// Loop runs posted tasks one at a time on the goroutine that calls Run.
type Loop struct {
	clock clockwork.Clock
	tasks chan func()

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a loop driven by clock. A nil clock uses the real clock.
func New(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Clock returns the clock driving the loop's timers
func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

// Run processes tasks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn and returns without waiting. It blocks only while the
// queue is full and reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task running on the loop.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Close stops the loop. Queued tasks are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed when the loop stops
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
