// Package help renders the keybinding reference as glamour markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/geosift/internal/keys"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/ui/markdown"
	"github.com/zjrosen/geosift/internal/ui/overlay"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

const contentWidth = 56

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.OverlayBorderColor).
	Padding(0, 1)

var sections = []string{"Modes", "Navigation", "Actions", "General"}

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	style  string
	width  int
	height int
}

// New creates a help view over the active keymap. style is the glamour
// style name from ui.markdown_style.
func New(km keys.KeyMap, style string) Model {
	return Model{keys: km, style: style}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// SetKeys replaces the keymap after a config reload.
func (m Model) SetKeys(km keys.KeyMap) Model {
	m.keys = km
	return m
}

// Markdown returns the help document source.
func (m Model) Markdown() string {
	var b strings.Builder
	b.WriteString("# geosift\n\n")
	b.WriteString("Draw a region on the map, type filters in the table header, ")
	b.WriteString("and results update as you go.\n")

	for i, group := range m.keys.FullHelp() {
		fmt.Fprintf(&b, "\n## %s\n\n", sections[i])
		for _, binding := range group {
			b.WriteString(item(binding))
		}
	}

	b.WriteString("\nWhile a text field has focus only `enter` and `esc` are intercepted. ")
	b.WriteString("`space` still closes the coordinate panel.\n")
	return b.String()
}

func item(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("- `%s` %s\n", h.Key, h.Desc)
}

// View renders the help box.
func (m Model) View() string {
	md := m.Markdown()
	r, err := markdown.New(contentWidth, m.style)
	if err != nil {
		log.ErrorErr(log.CatUI, "help renderer", err)
		return boxStyle.Render(md)
	}
	out, err := r.Render(md)
	if err != nil {
		log.ErrorErr(log.CatUI, "help render", err)
		return boxStyle.Render(md)
	}
	return boxStyle.Render(strings.TrimRight(out, "\n"))
}

// Overlay renders the help box centered over background.
func (m Model) Overlay(background string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), background)
}
