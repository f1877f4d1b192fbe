// ABOUTME: Built-in sequencer patterns
// ABOUTME: Plain in-memory step maps keyed by name
package sequencer

import "github.com/echo-haptics/echo-go/pkg/haptics"

// Presets returns fresh copies of the built-in patterns.
func Presets() map[string]Pattern {
	return map[string]Pattern{
		"four-on-the-floor": preset(8, map[int]Step{
			0: StepOf(haptics.Deep),
			2: StepOf(haptics.Deep),
			4: StepOf(haptics.Deep),
			6: StepOf(haptics.Deep),
		}),
		"backbeat": preset(8, map[int]Step{
			0: StepOf(haptics.Deep),
			2: StepOf(haptics.Sharp),
			4: StepOf(haptics.Deep),
			5: StepOf(haptics.Deep),
			6: StepOf(haptics.Sharp),
		}),
		"shimmer": preset(16, map[int]Step{
			0:  StepOf(haptics.Soft, haptics.Rapid),
			4:  StepOf(haptics.Rapid),
			8:  StepOf(haptics.Soft, haptics.Rapid),
			12: StepOf(haptics.Rapid),
			14: StepOf(haptics.Sharp),
		}),
		"heartbeat": preset(8, map[int]Step{
			0: StepOf(haptics.Deep),
			1: StepOf(haptics.Deep, haptics.Soft),
		}),
	}
}

func preset(n int, steps map[int]Step) Pattern {
	p, err := NewPattern(n)
	if err != nil {
		panic(err)
	}
	for i, s := range steps {
		p.Steps[i] = s
	}
	return p
}
