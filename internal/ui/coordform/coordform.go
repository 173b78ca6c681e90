// Package coordform is the coordinate entry panel: a latitude and a
// longitude field plus clipboard paste and yank.
package coordform

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/geosift/internal/ui/styles"
)

const (
	FieldLat = iota
	FieldLon
)

const inputWidth = 20

// PasteMsg carries clipboard text read by ReadClipboard.
type PasteMsg struct {
	Text string
	Err  error
}

// YankedMsg reports the result of WriteClipboard.
type YankedMsg struct {
	Text string
	Err  error
}

// Clipboard is swapped in tests.
var (
	readAll  = clipboard.ReadAll
	writeAll = clipboard.WriteAll
)

// ReadClipboard reads the system clipboard off the update loop.
func ReadClipboard() tea.Cmd {
	return func() tea.Msg {
		text, err := readAll()
		return PasteMsg{Text: text, Err: err}
	}
}

// WriteClipboard copies text to the system clipboard.
func WriteClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return YankedMsg{Text: text, Err: writeAll(text)}
	}
}

// Model is the panel. It is a pointer type so the mode controller can hold
// it as its CoordinateForm.
type Model struct {
	inputs  [2]textinput.Model
	focused int // -1 when neither field has focus
}

// New creates an empty, unfocused panel.
func New() *Model {
	m := &Model{focused: -1}
	for i, p := range []string{"latitude", "longitude"} {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = p
		ti.Width = inputWidth
		ti.CharLimit = 32
		m.inputs[i] = ti
	}
	return m
}

// Values returns the raw field contents.
func (m *Model) Values() (lat, lon string) {
	return m.inputs[FieldLat].Value(), m.inputs[FieldLon].Value()
}

// SetValues fills both fields.
func (m *Model) SetValues(lat, lon string) {
	m.inputs[FieldLat].SetValue(lat)
	m.inputs[FieldLon].SetValue(lon)
}

// Clear empties both fields.
func (m *Model) Clear() {
	m.SetValues("", "")
}

// Focus gives a field keyboard focus.
func (m *Model) Focus(field int) tea.Cmd {
	if field != FieldLat && field != FieldLon {
		return nil
	}
	m.Blur()
	m.focused = field
	return m.inputs[field].Focus()
}

// Blur removes focus from both fields.
func (m *Model) Blur() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focused = -1
}

// Focused returns the focused field, or -1.
func (m *Model) Focused() int {
	return m.focused
}

// NextField moves focus lat -> lon -> lat.
func (m *Model) NextField() tea.Cmd {
	if m.focused == FieldLat {
		return m.Focus(FieldLon)
	}
	return m.Focus(FieldLat)
}

// Update forwards msg to the focused field.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if m.focused < 0 {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return cmd
}

// View renders the panel.
func (m *Model) View() string {
	label := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Width(5)
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	var b strings.Builder
	b.WriteString(label.Render("Lat") + m.inputs[FieldLat].View())
	b.WriteString("\n")
	b.WriteString(label.Render("Lon") + m.inputs[FieldLon].View())
	b.WriteString("\n\n")
	b.WriteString(hint.Render("tab switch  enter place  esc close"))

	return styles.Panel(b.String(), "Go to coordinates", inputWidth+9, 6, m.focused >= 0)
}
