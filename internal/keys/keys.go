// Package keys contains keybinding definitions.
package keys

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Modes
	Rectangle key.Binding
	Circle    key.Binding
	Edit      key.Binding
	Overlay   key.Binding
	Escape    key.Binding
	Enter     key.Binding
	MapView   key.Binding
	TableView key.Binding

	// Navigation
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding

	// Actions
	Marker    key.Binding
	Anchor    key.Binding
	NextFocus key.Binding
	PrevFocus key.Binding
	Filter    key.Binding
	Yank      key.Binding
	Paste     key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// Map is the active keymap. ApplyConfig rebinds the auxiliary keys.
var Map = DefaultKeyMap()

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Modes
		Rectangle: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "draw rectangle"),
		),
		Circle: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "draw circle"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit shapes"),
		),
		Overlay: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "enter coordinates"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear shapes"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm and search"),
		),
		MapView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "map view"),
		),
		TableView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "table view"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "move right"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),

		// Actions
		Marker: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "drop marker"),
		),
		Anchor: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "anchor shape corner"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "focus filters"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy cursor coordinates"),
		),
		Paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste coordinates"),
		),

		// General
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rectangle, k.Circle, k.Overlay, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Rectangle, k.Circle, k.Edit, k.Overlay, k.Escape, k.Enter, k.MapView, k.TableView}, // Modes
		{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut},                                  // Navigation
		{k.Marker, k.Anchor, k.NextFocus, k.PrevFocus, k.Filter, k.Yank, k.Paste},             // Actions
		{k.Help, k.Quit}, // General
	}
}

// ApplyConfig rebinds the paste and yank keys from user config.
// Empty strings keep the defaults. The mode keys are fixed.
func ApplyConfig(paste, yank string) {
	if paste != "" {
		p := translateToTerminal(paste)
		Map.Paste = key.NewBinding(
			key.WithKeys(p),
			key.WithHelp(translateToDisplay(p), "paste coordinates"),
		)
	}
	if yank != "" {
		y := translateToTerminal(yank)
		Map.Yank = key.NewBinding(
			key.WithKeys(y),
			key.WithHelp(translateToDisplay(y), "copy cursor coordinates"),
		)
	}
}

// Reload restores the defaults and applies the configured overrides.
func Reload(paste, yank string) {
	Map = DefaultKeyMap()
	ApplyConfig(paste, yank)
}

// ResetForTesting restores the default keymap.
func ResetForTesting() {
	Map = DefaultKeyMap()
}

// translateToTerminal converts user-facing key names to the strings Bubble Tea reports.
func translateToTerminal(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	switch k {
	case "ctrl+space":
		return "ctrl+@"
	case "space":
		return " "
	}
	return k
}

// translateToDisplay is the inverse of translateToTerminal for help text.
func translateToDisplay(k string) string {
	switch k {
	case "ctrl+@":
		return "ctrl+space"
	case " ":
		return "space"
	}
	return k
}
