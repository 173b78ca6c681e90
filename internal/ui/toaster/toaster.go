// Package toaster shows short, self-dismissing notices such as rejected
// mode keys or copied coordinates.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/geosift/internal/ui/overlay"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 2 * time.Second

// Style determines the border color of the toast.
type Style int

const (
	StyleInfo Style = iota
	StyleWarn
	StyleSuccess
)

// DismissMsg hides the toast it was scheduled for. Toasts shown later have
// a higher Gen and ignore it.
type DismissMsg struct {
	Gen int
}

// Model holds the toaster state.
type Model struct {
	message string
	style   Style
	visible bool
	gen     int
}

// New creates a hidden toaster.
func New() Model {
	return Model{}
}

// Show displays message and returns the command that dismisses it after d.
func (m Model) Show(message string, style Style, d time.Duration) (Model, tea.Cmd) {
	m.gen++
	m.message = message
	m.style = style
	m.visible = true
	gen := m.gen
	return m, tea.Tick(d, func(time.Time) tea.Msg { return DismissMsg{Gen: gen} })
}

// Dismiss hides the toast if msg belongs to the current one.
func (m Model) Dismiss(msg DismissMsg) Model {
	if msg.Gen == m.gen {
		m.visible = false
		m.message = ""
	}
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the current text.
func (m Model) Message() string {
	return m.message
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	var color lipgloss.TerminalColor
	switch m.style {
	case StyleWarn:
		color = styles.StatusWarningColor
	case StyleSuccess:
		color = styles.StatusSuccessColor
	default:
		color = styles.BorderFocusColor
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(m.message)
}

// Overlay renders the toast bottom-center over bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}
