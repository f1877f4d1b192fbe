// ABOUTME: Entry point for the Echo player
// ABOUTME: Parses CLI flags and starts the application
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/echo-haptics/echo-go/internal/app"
	"github.com/echo-haptics/echo-go/internal/version"
)

var (
	file        = flag.String("file", "", "Audio file to play (mp3, flac, wav); empty plays a metronome")
	loop        = flag.Bool("loop", false, "Loop the audio file")
	bpm         = flag.Float64("bpm", 120, "Metronome tempo when no file is given")
	captureIn   = flag.Bool("capture", false, "Analyze the default input device instead of playing a file")
	loopback    = flag.Bool("loopback", false, "Capture system output where supported (implies -capture)")
	sampleRate  = flag.Int("rate", 48000, "Device sample rate")
	volume      = flag.Int("volume", 100, "Playback volume (0-100)")
	transducer  = flag.Bool("transducer", false, "Drive a tactile transducer through the audio output")
	gain        = flag.Float64("gain", 1.0, "Transducer drive gain")
	noAuto      = flag.Bool("no-auto", false, "Do not play haptics for detected rhythm events")
	preset      = flag.String("preset", "", "Sequencer preset (backbeat, four-on-the-floor, heartbeat, shimmer)")
	tempo       = flag.Float64("tempo", 120, "Sequencer tempo in bpm")
	swing       = flag.Float64("swing", 0, "Sequencer swing offset (0-0.5); enables swing when set")
	logFile     = flag.String("log-file", "echo.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	config := app.Config{
		File:        *file,
		Loop:        *loop,
		BPM:         *bpm,
		Capture:     *captureIn || *loopback,
		Loopback:    *loopback,
		SampleRate:  *sampleRate,
		Volume:      *volume,
		Transducer:  *transducer,
		Gain:        *gain,
		AutoHaptics: !*noAuto,
		Preset:      *preset,
		Tempo:       *tempo,
		Swing:       *swing,
		UseTUI:      useTUI,
	}

	a := app.New(config)
	if err := a.Start(); err != nil {
		a.Stop()
		log.Fatalf("Failed to start: %v", err)
	}

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Printf("TUI error: %v", err)
	}

	a.Stop()
	log.Printf("Echo stopped")
}
