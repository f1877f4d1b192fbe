// ABOUTME: Offline analysis tool for Echo
// ABOUTME: Runs a file through the rhythm pipeline without playback and prints the events
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/echo-haptics/echo-go/pkg/audio/source"
)

var (
	metronomeBPM = flag.Float64("metronome", 0, "Analyze a synthetic metronome at this bpm instead of a file")
	bars         = flag.Int("bars", 4, "Metronome length in bars")
	blockFrames  = flag.Int("block", 1024, "Analysis block length in frames")
	render       = flag.String("render", "", "Write the haptic drive signal for every event to this WAV file")
	quiet        = flag.Bool("quiet", false, "Print only the summary")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: echo-analyze [flags] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var (
		src source.Source
		err error
	)
	switch {
	case *metronomeBPM > 0:
		src = source.NewMetronome(source.MetronomeConfig{BPM: *metronomeBPM, Bars: *bars})
	case flag.NArg() == 1:
		src, err = source.Open(flag.Arg(0), source.Options{})
		if err != nil {
			log.Fatalf("Failed to open: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	defer src.Close()

	rep, err := analyze(src, *blockFrames)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if !*quiet {
		rep.printEvents(os.Stdout)
	}
	rep.printSummary(os.Stdout)

	if *render != "" {
		if err := renderHaptics(*render, rep); err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		fmt.Printf("haptic drive written to %s\n", *render)
	}
}
