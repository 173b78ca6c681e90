// Package alert provides a blocking modal message. While visible it
// captures every key; enter, esc or space dismiss it.
package alert

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/geosift/internal/ui/overlay"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

const textWidth = 44

// DismissedMsg is sent when the user closes the alert.
type DismissedMsg struct{}

// Model is the alert state.
type Model struct {
	title   string
	message string
	visible bool
	width   int
	height  int
}

// New creates a hidden alert.
func New() Model {
	return Model{}
}

// Show displays message until dismissed. A second Show replaces the text.
func (m Model) Show(title, message string) Model {
	m.title = title
	m.message = message
	m.visible = true
	return m
}

// Visible reports whether the alert is blocking input.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the current text.
func (m Model) Message() string {
	return m.message
}

// SetSize updates the viewport used for centering.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Update swallows every key while visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "enter", "esc", " ":
		m.visible = false
		return m, func() tea.Msg { return DismissedMsg{} }
	}
	return m, nil
}

// View renders the alert box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(styles.StatusErrorColor).Render(m.title)
	body := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).
		Render(wordwrap.String(m.message, textWidth))
	footer := lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("enter  ok")

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(footer)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.StatusErrorColor).
		Padding(1, 2).
		Render(b.String())
}

// Overlay renders the alert centered over bg. Hidden alerts return bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}
