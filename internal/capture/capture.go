// ABOUTME: Malgo-based capture device feeding the analysis pipeline
// ABOUTME: Microphone or loopback input delivered in fixed-size blocks from the data callback
package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// ErrRunning is returned by Start while the device is already capturing.
var ErrRunning = errors.New("capture already running")

// Analyzer receives captured blocks as little-endian 16-bit PCM. Prepare
// is called before the device starts whenever the device rate differs from
// the requested one.
type Analyzer interface {
	Prepare(sampleRate int) error
	ProcessInt16LE(data []byte, sampleRate, channels int)
}

// Config holds capture configuration
type Config struct {
	// SampleRate requested from the device (default 48000)
	SampleRate int

	// Channels requested from the device (default 1)
	Channels int

	// BlockFrames is the analysis block length (default 1024)
	BlockFrames int

	// Loopback captures the system output instead of a microphone where
	// the backend supports it (WASAPI)
	Loopback bool
}

// DefaultConfig returns capture defaults
func DefaultConfig() Config {
	return Config{
		SampleRate:  48000,
		Channels:    1,
		BlockFrames: 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Channels <= 0 {
		c.Channels = d.Channels
	}
	if c.BlockFrames <= 0 {
		c.BlockFrames = d.BlockFrames
	}
	return c
}

// Capture owns a malgo context and one capture device
type Capture struct {
	cfg      Config
	analyzer Analyzer

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	blocks   *blocker

	frames atomic.Uint64
}

// New creates a capture that feeds analyzer
func New(analyzer Analyzer, cfg Config) *Capture {
	return &Capture{
		cfg:      cfg.withDefaults(),
		analyzer: analyzer,
	}
}

// Start opens the default capture device and begins streaming
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return ErrRunning
	}

	if c.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		c.malgoCtx = ctx
	}

	kind := malgo.Capture
	if c.cfg.Loopback {
		kind = malgo.Loopback
	}

	deviceConfig := malgo.DefaultDeviceConfig(kind)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(c.cfg.Channels)
	deviceConfig.SampleRate = uint32(c.cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	// The callback may start before InitDevice returns
	rate, channels := c.cfg.SampleRate, c.cfg.Channels
	c.blocks = newBlocker(c.analyzer, rate, channels, c.cfg.BlockFrames)
	blocks := c.blocks

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		blocks.write(pInputSamples)
		c.frames.Add(uint64(frameCount))
	}

	device, err := malgo.InitDevice(c.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if got := int(device.SampleRate()); got != rate && got > 0 {
		log.Printf("capture: device runs at %dHz instead of %dHz", got, rate)
		if err := blocks.retune(got); err != nil {
			log.Printf("capture: analysis at %dHz: %v", got, err)
		}
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	c.device = device
	log.Printf("capture: started: %dHz, %d channels, %s (malgo/%s)",
		device.SampleRate(), channels, kindName(kind), formatName(deviceConfig.Capture.Format))
	return nil
}

// Stop halts the device and releases it
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeDevice()
}

// closeDevice stops and uninitializes the device (must hold c.mu)
func (c *Capture) closeDevice() error {
	if c.device == nil {
		return nil
	}
	if err := c.device.Stop(); err != nil {
		log.Printf("capture: device stop error: %v", err)
	}
	c.device.Uninit()
	c.device = nil
	return nil
}

// Close stops capture and frees the malgo context
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closeDevice(); err != nil {
		return err
	}

	if c.malgoCtx != nil {
		if err := c.malgoCtx.Uninit(); err != nil {
			log.Printf("capture: malgo context uninit error: %v", err)
		}
		c.malgoCtx.Free()
		c.malgoCtx = nil
	}
	return nil
}

// Running reports whether a device is open
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device != nil
}

// Frames returns the number of frames captured
func (c *Capture) Frames() uint64 {
	return c.frames.Load()
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}

func kindName(kind malgo.DeviceType) string {
	if kind == malgo.Loopback {
		return "loopback"
	}
	return "microphone"
}
