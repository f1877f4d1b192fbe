// ABOUTME: Rhythm event definitions
// ABOUTME: Classified, timestamped percussive and structural moments
package rhythm

import (
	"fmt"
	"time"
)

// Category classifies a rhythm event
type Category uint8

const (
	Kick Category = iota
	Snare
	HiHat
	Build
	Drop
)

var categoryNames = [...]string{
	Kick:  "kick",
	Snare: "snare",
	HiHat: "hihat",
	Build: "build",
	Drop:  "drop",
}

// String returns the category name
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return int(c) < len(categoryNames)
}

// Event is an immutable rhythm event. Seq increases with every publish on a
// Channel and lets consumers detect new events between reads.
type Event struct {
	Seq       uint64
	Time      time.Time
	Category  Category
	Intensity float64 // [0, 1]
}
