// Package statusbar renders the bottom line: current mode, the search
// metadata panel, the region summary and the cursor readout.
package statusbar

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

// Model holds what the status bar shows. The zero value shows only the mode.
type Model struct {
	mode string

	hasMetadata bool
	results     int
	tookMs      float64

	hasRegion bool
	inRegion  int

	cursor        geo.LatLng
	cursorVisible bool

	width int
}

// New creates a status bar with the cursor readout visible.
func New() Model {
	return Model{cursorVisible: true}
}

// SetMode sets the mode label.
func (m Model) SetMode(mode string) Model {
	m.mode = mode
	return m
}

// SetMetadata records the latest search response.
func (m Model) SetMetadata(results int, tookMs float64) Model {
	m.hasMetadata = true
	m.results = results
	m.tookMs = tookMs
	return m
}

// SetRegion sets how many result markers fall inside the drawn region.
// ok is false when nothing is drawn.
func (m Model) SetRegion(n int, ok bool) Model {
	m.inRegion = n
	m.hasRegion = ok
	return m
}

// SetCursor updates the readout position.
func (m Model) SetCursor(p geo.LatLng) Model {
	m.cursor = p
	return m
}

// SetCursorVisible shows or hides the readout. Hidden in the table view.
func (m Model) SetCursorVisible(visible bool) Model {
	m.cursorVisible = visible
	return m
}

// CursorVisible reports whether the readout is shown.
func (m Model) CursorVisible() bool {
	return m.cursorVisible
}

// SetWidth sets the render width.
func (m Model) SetWidth(width int) Model {
	m.width = width
	return m
}

// Metadata returns the metadata panel text, or "" before the first response.
func (m Model) Metadata() string {
	if !m.hasMetadata {
		return ""
	}
	return FormatMetadata(m.results, m.tookMs)
}

// FormatMetadata renders the result count and rounded timing.
func FormatMetadata(results int, tookMs float64) string {
	return fmt.Sprintf("Number of results: %d    Time taken: %dms", results, int64(math.Round(tookMs)))
}

// View renders the bar. The cursor readout is right-aligned.
func (m Model) View() string {
	left := []string{styles.ModeStyle.Render(strings.ToUpper(m.mode))}
	if md := m.Metadata(); md != "" {
		left = append(left, md)
	}
	if m.hasRegion {
		left = append(left, fmt.Sprintf("In region: %d", m.inRegion))
	}
	l := strings.Join(left, "  ")

	var r string
	if m.cursorVisible {
		r = m.cursor.String()
	}

	gap := m.width - lipgloss.Width(l) - lipgloss.Width(r) - 2
	if gap < 1 {
		gap = 1
	}
	line := l + strings.Repeat(" ", gap) + r
	return styles.StatusBarStyle.Render(styles.FitWidth(line, max(m.width-2, 0)))
}
