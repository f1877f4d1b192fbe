// ABOUTME: Bubbletea model for the Echo TUI
// ABOUTME: Holds displayed state and maps keys onto controller calls
package ui

import (
	"log"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/echo-haptics/echo-go/pkg/features"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/rhythm"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
)

const (
	tempoStep = 5.0
	shiftStep = 0.05
)

// Controller is what the TUI drives. The app wires it to the session and
// the playback transport.
type Controller interface {
	TogglePlayback() error
	StopPlayback()
	SetVolume(volume int)
	SetMuted(muted bool)

	AddLayer(t haptics.Texture) bool
	RemoveLayer(t haptics.Texture) bool
	ClearLayers()
	PlayTexture(c haptics.Category, intensity float64) error
	SetAutoHaptics(on bool)

	SetPattern(p sequencer.Pattern)
	SetTempo(bpm float64)
	SetShiftOffset(f float64)
	SetShifted(on bool)
	PlaySequence() bool
	StopSequence()
}

// StatusMsg updates TUI state. Zero fields are left unchanged unless noted.
type StatusMsg struct {
	Title    string
	State    string
	Position time.Duration
	Duration time.Duration

	Levels   features.Snapshot
	Event    rhythm.Event
	HasEvent bool

	Counts     [haptics.NumTextures]int
	Appearance layers.Appearance

	// Step is always applied; -1 means no step has played
	Step       int
	Sequencing bool
	Tempo      float64

	HapticsAvailable bool
}

// Model represents the TUI state
type Model struct {
	ctrl Controller

	// Transport
	title    string
	state    string
	position time.Duration
	duration time.Duration
	volume   int
	muted    bool

	// Analysis
	levels    features.Snapshot
	lastEvent rhythm.Event
	hasEvent  bool

	// Layers
	counts     [haptics.NumTextures]int
	appearance layers.Appearance
	auto       bool
	haptics    bool

	// Sequencer
	pattern     sequencer.Pattern
	presets     []string
	preset      int
	cursor      int
	step        int
	sequencing  bool
	tempo       float64
	shifted     bool
	shiftOffset float64

	// Dimensions
	width  int
	height int

	quitting bool
}

// NewModel creates a new TUI model. ctrl may be nil in tests.
func NewModel(ctrl Controller) Model {
	pattern, _ := sequencer.NewPattern(8)

	names := make([]string, 0, 4)
	for name := range sequencer.Presets() {
		names = append(names, name)
	}
	sort.Strings(names)

	return Model{
		ctrl:       ctrl,
		state:      "idle",
		volume:     100,
		appearance: layers.Blend([haptics.NumTextures]int{}),
		auto:       true,
		pattern:    pattern,
		presets:    names,
		preset:     -1,
		step:       -1,
		tempo:      sequencer.DefaultConfig().Tempo,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	// Transport
	case " ":
		if m.ctrl != nil {
			if err := m.ctrl.TogglePlayback(); err != nil {
				log.Printf("ui: playback: %v", err)
			}
		}
	case "s":
		if m.ctrl != nil {
			m.ctrl.StopPlayback()
		}
	case "up":
		m.setVolume(m.volume + 5)
	case "down":
		m.setVolume(m.volume - 5)
	case "m":
		m.muted = !m.muted
		if m.ctrl != nil {
			m.ctrl.SetMuted(m.muted)
		}

	// Layers
	case "1", "2", "3", "4":
		t := haptics.Textures()[key[0]-'1']
		if m.ctrl != nil && m.ctrl.AddLayer(t) {
			m.counts[t]++
		}
	case "!", "@", "#", "$":
		t := haptics.Textures()[shiftedDigit(key)]
		if m.ctrl != nil && m.ctrl.RemoveLayer(t) {
			m.counts[t]--
		}
	case "c":
		m.counts = [haptics.NumTextures]int{}
		if m.ctrl != nil {
			m.ctrl.ClearLayers()
		}
	case "a":
		m.auto = !m.auto
		if m.ctrl != nil {
			m.ctrl.SetAutoHaptics(m.auto)
		}
	case "t":
		m.tryCell()

	// Sequencer
	case "left":
		m.cursor = (m.cursor + m.pattern.Len() - 1) % m.pattern.Len()
	case "right":
		m.cursor = (m.cursor + 1) % m.pattern.Len()
	case "enter":
		m.pattern = m.pattern.Clone()
		m.pattern.Cycle(m.cursor)
		m.pushPattern()
	case "n":
		next := 16
		if m.pattern.Len() == 16 {
			next = 8
		}
		m.pattern = m.pattern.Clone()
		if err := m.pattern.Resize(next); err == nil {
			m.cursor %= next
			m.pushPattern()
		}
	case "P":
		if len(m.presets) > 0 {
			m.preset = (m.preset + 1) % len(m.presets)
			m.pattern = sequencer.Presets()[m.presets[m.preset]]
			m.cursor %= m.pattern.Len()
			m.pushPattern()
		}
	case "p":
		if m.ctrl == nil {
			break
		}
		if m.sequencing {
			m.ctrl.StopSequence()
			m.sequencing = false
		} else {
			m.sequencing = m.ctrl.PlaySequence()
		}
	case "+", "=":
		m.setTempo(m.tempo + tempoStep)
	case "-", "_":
		m.setTempo(m.tempo - tempoStep)
	case "w":
		m.shifted = !m.shifted
		if m.ctrl != nil {
			m.ctrl.SetShifted(m.shifted)
		}
	case "]":
		m.setShift(m.shiftOffset + shiftStep)
	case "[":
		m.setShift(m.shiftOffset - shiftStep)
	}

	return m, nil
}

func (m *Model) setVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	m.volume = v
	if m.ctrl != nil {
		m.ctrl.SetVolume(v)
	}
}

func (m *Model) setTempo(bpm float64) {
	if bpm < sequencer.MinTempo {
		bpm = sequencer.MinTempo
	}
	if bpm > sequencer.MaxTempo {
		bpm = sequencer.MaxTempo
	}
	m.tempo = bpm
	if m.ctrl != nil {
		m.ctrl.SetTempo(bpm)
	}
}

func (m *Model) setShift(f float64) {
	if f < 0 {
		f = 0
	}
	if f > sequencer.MaxShift {
		f = sequencer.MaxShift
	}
	m.shiftOffset = f
	if m.ctrl != nil {
		m.ctrl.SetShiftOffset(f)
	}
}

func (m *Model) pushPattern() {
	if m.ctrl != nil {
		m.ctrl.SetPattern(m.pattern.Clone())
	}
}

// tryCell plays every texture under the cursor once
func (m *Model) tryCell() {
	if m.ctrl == nil {
		return
	}
	for _, t := range m.pattern.Steps[m.cursor].Textures() {
		if err := m.ctrl.PlayTexture(t.Category(), 1); err != nil {
			log.Printf("ui: preview %s: %v", t, err)
		}
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.State != "" {
		m.state = msg.State
	}
	m.position = msg.Position
	if msg.Duration != 0 {
		m.duration = msg.Duration
	}

	m.levels = msg.Levels
	if msg.HasEvent {
		m.lastEvent = msg.Event
		m.hasEvent = true
	}

	m.counts = msg.Counts
	m.appearance = msg.Appearance
	m.haptics = msg.HapticsAvailable

	m.step = msg.Step
	m.sequencing = msg.Sequencing
	if msg.Tempo != 0 {
		m.tempo = msg.Tempo
	}
}

// shiftedDigit maps the shifted number-row keys back to 0-3
func shiftedDigit(key string) int {
	switch key {
	case "!":
		return 0
	case "@":
		return 1
	case "#":
		return 2
	default:
		return 3
	}
}
