// ABOUTME: Rendering for the Echo TUI
// ABOUTME: Meters, last rhythm event, layer swatch and the step grid styled with lipgloss
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/echo-haptics/echo-go/pkg/haptics"
	"github.com/echo-haptics/echo-go/pkg/layers"
	"github.com/echo-haptics/echo-go/pkg/sequencer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	eventStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Grid symbols
const (
	stepEmpty    = "·"
	stepMulti    = "●"
	stepPlayhead = "▶"
)

var sparks = []rune(" ▁▂▃▄▅▆▇█")

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Echo"))
	b.WriteString("\n\n")
	b.WriteString(m.renderTransport())
	b.WriteString("\n")
	b.WriteString(m.renderLevels())
	b.WriteString("\n")
	b.WriteString(m.renderLayers())
	b.WriteString("\n")
	b.WriteString(m.renderSequencer())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderTransport() string {
	var b strings.Builder

	title := m.title
	if title == "" {
		title = "(no track)"
	}
	b.WriteString(headerStyle.Render("Track:  "))
	b.WriteString(valueStyle.Render(truncate(title, 48)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("State:  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %s / %s",
		m.state, clock(m.position), clock(m.duration))))
	b.WriteString("\n")

	mute := ""
	if m.muted {
		mute = " (muted)"
	}
	b.WriteString(headerStyle.Render("Volume: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, mute)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLevels() string {
	var b strings.Builder

	amp := int(m.levels.Amplitude*100 + 0.5)
	b.WriteString(headerStyle.Render("Level:  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("[%s] %.2f", renderBar(amp, 100, 20), m.levels.Amplitude)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Bands:  "))
	if m.levels.SpectralOK {
		b.WriteString(valueStyle.Render(sparkline(m.levels.Bands[:])))
	} else {
		b.WriteString(valueStyle.Render("(unavailable)"))
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Rhythm: "))
	if m.hasEvent {
		b.WriteString(eventStyle.Render(fmt.Sprintf("%-6s", m.lastEvent.Category)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %.2f  #%d", m.lastEvent.Intensity, m.lastEvent.Seq)))
	} else {
		b.WriteString(valueStyle.Render("-"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLayers() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Layers: "))
	for i, t := range haptics.Textures() {
		if i > 0 {
			b.WriteString("  ")
		}
		dots := strings.Repeat("●", m.counts[t]) + strings.Repeat("○", layers.MaxPerTexture-m.counts[t])
		label := fmt.Sprintf("%d %s %s", i+1, textureLabel(t), dots)
		b.WriteString(textureStyle(t).Render(label))
	}
	b.WriteString("\n")

	swatch := lipgloss.NewStyle().
		Background(lipgloss.Color(m.appearance.Hex())).
		Render("      ")
	b.WriteString(headerStyle.Render("Blend:  "))
	b.WriteString(swatch)
	b.WriteString(valueStyle.Render(fmt.Sprintf(" %s  glow %.0f%%", m.appearance.Hex(), m.appearance.GlowIntensity*100)))
	b.WriteString("\n")

	auto := "off"
	if m.auto {
		auto = "on"
	}
	device := "unavailable"
	if m.haptics {
		device = "ready"
	}
	b.WriteString(headerStyle.Render("Haptic: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("auto %s, device %s", auto, device)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSequencer() string {
	var b strings.Builder

	state := "stopped"
	if m.sequencing {
		state = "playing"
	}
	swing := "off"
	if m.shifted {
		swing = fmt.Sprintf("%.0f%%", m.shiftOffset*100)
	}
	preset := "custom"
	if m.preset >= 0 && m.preset < len(m.presets) {
		preset = m.presets[m.preset]
	}

	b.WriteString(headerStyle.Render("Steps:  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %.0f bpm  swing %s  %s", state, m.tempo, swing, preset)))
	b.WriteString("\n        ")
	b.WriteString(m.renderGrid())
	b.WriteString("\n")
	return b.String()
}

// renderGrid draws one cell per step; the cursor is bracketed
func (m Model) renderGrid() string {
	var b strings.Builder
	for i, s := range m.pattern.Steps {
		cell := m.cellSymbol(i, s)
		if i == m.cursor {
			b.WriteString("[" + cell + "]")
		} else {
			b.WriteString(" " + cell + " ")
		}
	}
	return b.String()
}

func (m Model) cellSymbol(i int, s sequencer.Step) string {
	if m.sequencing && i == m.step {
		return eventStyle.Render(stepPlayhead)
	}
	switch s.Len() {
	case 0:
		return helpStyle.Render(stepEmpty)
	case 1:
		t := s.Textures()[0]
		return textureStyle(t).Render(textureLabel(t)[:1])
	default:
		return valueStyle.Render(stepMulti)
	}
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render(
		"space:Play/Pause  s:Stop  ↑/↓:Volume  m:Mute  q:Quit\n" +
			"1-4:Add layer  shift+1-4:Remove  c:Clear  a:Auto haptics  t:Preview cell\n" +
			"←/→:Cursor  enter:Cycle  n:8/16  P:Preset  p:Sequence  +/-:Tempo  w:Swing  [/]:Offset\n")
}

func textureStyle(t haptics.Texture) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(layers.BaseColor(t).Hex()))
}

func textureLabel(t haptics.Texture) string {
	switch t {
	case haptics.Deep:
		return "Deep"
	case haptics.Sharp:
		return "Sharp"
	case haptics.Rapid:
		return "Rapid"
	default:
		return "Soft"
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func sparkline(values []float64) string {
	out := make([]rune, len(values))
	top := len(sparks) - 1
	for i, v := range values {
		idx := int(v*float64(top) + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx > top {
			idx = top
		}
		out[i] = sparks[idx]
	}
	return string(out)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
