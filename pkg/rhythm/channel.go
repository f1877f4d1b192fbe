// ABOUTME: Single-slot latest rhythm event channel
// ABOUTME: Overwrite-on-publish seqlock, never queues
package rhythm

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"
)

// Channel holds only the most recent rhythm event. Publish must be called
// from a single producer (the audio callback) and never blocks or allocates.
// Latest may be called from any goroutine.
type Channel struct {
	lock      atomic.Uint64 // seqlock counter, odd while writing
	published atomic.Uint64 // number of events published so far
	nanos     atomic.Int64
	category  atomic.Uint32
	intensity atomic.Uint64
}

// Publish overwrites the latest event and returns the stored copy with its
// sequence number assigned.
func (c *Channel) Publish(e Event) Event {
	e.Seq = c.published.Load() + 1

	c.lock.Add(1)
	c.nanos.Store(e.Time.UnixNano())
	c.category.Store(uint32(e.Category))
	c.intensity.Store(math.Float64bits(e.Intensity))
	c.published.Store(e.Seq)
	c.lock.Add(1)

	return e
}

// Latest returns the most recent event, or false if nothing was published.
func (c *Channel) Latest() (Event, bool) {
	for {
		start := c.lock.Load()
		if start&1 == 1 {
			runtime.Gosched()
			continue
		}

		e := Event{
			Seq:       c.published.Load(),
			Time:      time.Unix(0, c.nanos.Load()),
			Category:  Category(c.category.Load()),
			Intensity: math.Float64frombits(c.intensity.Load()),
		}

		if c.lock.Load() == start {
			return e, e.Seq != 0
		}
	}
}

// Seq returns the sequence number of the latest event (0 if none).
func (c *Channel) Seq() uint64 {
	return c.published.Load()
}
