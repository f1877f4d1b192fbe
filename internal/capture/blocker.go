// ABOUTME: Regroups device callbacks into fixed-size analysis blocks
// ABOUTME: Runs on the capture thread without allocating or locking
package capture

import "sync/atomic"

// blocker accumulates 16-bit frames and hands full blocks to the analyzer.
// Devices may call back with any period; analysis always sees blockFrames.
type blocker struct {
	analyzer Analyzer
	channels int
	rate     atomic.Int64

	buf  []byte
	fill int
}

func newBlocker(analyzer Analyzer, rate, channels, blockFrames int) *blocker {
	b := &blocker{
		analyzer: analyzer,
		channels: channels,
		buf:      make([]byte, blockFrames*channels*2),
	}
	b.rate.Store(int64(rate))
	return b
}

// retune switches to the rate the device actually runs at. It must be
// called before the device starts so the callback never reconfigures
// analysis.
func (b *blocker) retune(rate int) error {
	b.rate.Store(int64(rate))
	if b.analyzer == nil {
		return nil
	}
	return b.analyzer.Prepare(rate)
}

func (b *blocker) write(data []byte) {
	for len(data) > 0 {
		n := copy(b.buf[b.fill:], data)
		b.fill += n
		data = data[n:]

		if b.fill == len(b.buf) {
			if b.analyzer != nil {
				b.analyzer.ProcessInt16LE(b.buf, int(b.rate.Load()), b.channels)
			}
			b.fill = 0
		}
	}
}
