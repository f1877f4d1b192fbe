// ABOUTME: Loop-owned one-shot timers and tickers
// ABOUTME: Callbacks run on the loop; Stop invalidates ticks already in flight
package runloop

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer runs a callback once on the loop. Its methods must be called on the
// loop.
type Timer struct {
	l      *Loop
	epoch  uint64
	active bool
	ct     clockwork.Timer
}

// AfterFunc runs fn on the loop after d. Must be called on the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{l: l, active: true}
	epoch := t.epoch
	t.ct = l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if t.epoch != epoch {
				return
			}
			t.active = false
			fn()
		})
	})
	return t
}

// Stop cancels the timer. A fire already queued on the loop is discarded.
// It reports whether the callback was still pending.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	pending := t.active
	t.active = false
	t.epoch++
	t.ct.Stop()
	return pending
}

// Ticker runs a callback on the loop every period. Ticks are scheduled
// against the ideal deadline so slow callbacks do not accumulate drift.
type Ticker struct {
	l        *Loop
	period   time.Duration
	fn       func()
	epoch    uint64
	deadline time.Time
	ct       clockwork.Timer
}

// NewTicker starts a ticker with the given period. Must be called on the
// loop.
func (l *Loop) NewTicker(period time.Duration, fn func()) *Ticker {
	tk := &Ticker{l: l, period: period, fn: fn}
	tk.deadline = l.clock.Now()
	tk.arm()
	return tk
}

func (tk *Ticker) arm() {
	tk.deadline = tk.deadline.Add(tk.period)
	delay := tk.deadline.Sub(tk.l.clock.Now())
	if delay < 0 {
		// Fell behind; skip ahead rather than firing a burst
		tk.deadline = tk.l.clock.Now().Add(tk.period)
		delay = tk.period
	}

	epoch := tk.epoch
	tk.ct = tk.l.clock.AfterFunc(delay, func() {
		tk.l.Post(func() {
			if tk.epoch != epoch {
				return
			}
			tk.fn()
			if tk.epoch == epoch {
				tk.arm()
			}
		})
	})
}

// Stop cancels the ticker and discards any tick already queued.
func (tk *Ticker) Stop() {
	if tk == nil {
		return
	}
	tk.epoch++
	tk.ct.Stop()
}

// Period returns the tick period
func (tk *Ticker) Period() time.Duration {
	return tk.period
}
