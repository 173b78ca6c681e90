// Package grid is the tabular result view: a header row, a filter row with
// one input per searchable column, and the result rows with matched filter
// terms highlighted.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/geosift/internal/highlight"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/searchapi"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

const (
	// header, filter row and divider
	chromeLines = 3
	maxColumns  = 5
	minCell     = 4
)

// FilterChangedMsg is emitted when a filter value changes.
type FilterChangedMsg struct{}

// RowSelectedMsg is emitted when a row is clicked.
type RowSelectedMsg struct {
	Index int
}

// Model holds the grid state. Call SetData, Invalidate and Render together
// after each accepted response.
type Model struct {
	columns []string
	filters map[string]*textinput.Model
	order   []string // columns that have a filter, in column order

	rows []map[string]any

	focused   string // column whose filter has focus, "" for none
	cursor    int
	offset    int
	colOffset int

	width  int
	height int

	zonePrefix string
	stale      bool
	lines      []string
}

// New creates an empty grid. zonePrefix namespaces the row click zones.
func New(zonePrefix string) *Model {
	return &Model{
		filters:    map[string]*textinput.Model{},
		zonePrefix: zonePrefix,
		stale:      true,
	}
}

// SetColumns installs the column list and creates filter inputs for the
// columns that also appear in searchColumns. Existing filter values survive.
func (m *Model) SetColumns(columns, searchColumns []string) {
	searchable := make(map[string]bool, len(searchColumns))
	for _, c := range searchColumns {
		searchable[c] = true
	}

	filters := make(map[string]*textinput.Model)
	var order []string
	for _, c := range columns {
		if !searchable[c] {
			continue
		}
		f, ok := m.filters[c]
		if !ok {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = "filter"
			ti.Cursor.SetMode(cursor.CursorStatic)
			f = &ti
		}
		filters[c] = f
		order = append(order, c)
	}

	m.columns = append([]string(nil), columns...)
	m.filters = filters
	m.order = order
	if _, ok := m.filters[m.focused]; !ok {
		m.focused = ""
	}
	m.colOffset = 0
	m.Invalidate()
}

// Columns returns the displayed columns.
func (m *Model) Columns() []string {
	return m.columns
}

// FilterColumns returns the columns that have a filter input.
func (m *Model) FilterColumns() []string {
	return m.order
}

// SetData replaces the rows.
func (m *Model) SetData(rows []map[string]any) {
	m.rows = rows
	m.cursor = min(m.cursor, max(len(rows)-1, 0))
	m.offset = 0
}

// Rows returns the current rows.
func (m *Model) Rows() []map[string]any {
	return m.rows
}

// Invalidate marks the rendered rows stale.
func (m *Model) Invalidate() {
	m.stale = true
}

// Render rebuilds stale rows. Returns true if anything was rebuilt.
func (m *Model) Render() bool {
	if !m.stale {
		return false
	}
	m.lines = m.renderRows()
	m.stale = false
	return true
}

// SetSize sets the inner dimensions.
func (m *Model) SetSize(width, height int) {
	if width != m.width || height != m.height {
		m.width, m.height = width, height
		m.Invalidate()
	}
}

// Params builds search parameters in searchColumns order, skipping empty
// filters and columns without a filter input.
func (m *Model) Params(searchColumns []string) []searchapi.Param {
	var params []searchapi.Param
	for _, c := range searchColumns {
		f, ok := m.filters[c]
		if !ok {
			continue
		}
		if v := f.Value(); v != "" {
			params = append(params, searchapi.Param{Column: c, Value: v})
		}
	}
	return params
}

// SetFilter sets a filter value. Unknown columns are ignored.
func (m *Model) SetFilter(column, value string) {
	if f, ok := m.filters[column]; ok {
		f.SetValue(value)
		m.Invalidate()
	}
}

// Filter returns the filter value for column.
func (m *Model) Filter(column string) string {
	if f, ok := m.filters[column]; ok {
		return f.Value()
	}
	return ""
}

// FocusFilter focuses the filter of the given index into FilterColumns.
func (m *Model) FocusFilter(i int) tea.Cmd {
	if i < 0 || i >= len(m.order) {
		return nil
	}
	m.Blur()
	m.focused = m.order[i]
	m.ensureColumnVisible(m.focused)
	return m.filters[m.focused].Focus()
}

// NextFilter moves focus by delta filters, wrapping.
func (m *Model) NextFilter(delta int) tea.Cmd {
	n := len(m.order)
	if n == 0 {
		return nil
	}
	i := 0
	for j, c := range m.order {
		if c == m.focused {
			i = (j + delta + n) % n
			break
		}
	}
	return m.FocusFilter(i)
}

// Blur removes focus from every filter.
func (m *Model) Blur() {
	for _, f := range m.filters {
		f.Blur()
	}
	m.focused = ""
}

// Focused reports whether a filter has focus.
func (m *Model) Focused() bool {
	return m.focused != ""
}

// Cursor returns the selected row index.
func (m *Model) Cursor() int {
	return m.cursor
}

// MoveCursor moves the row selection by delta and keeps it visible.
func (m *Model) MoveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if vis := m.visibleRows(); m.cursor >= m.offset+vis {
		m.offset = m.cursor - vis + 1
	}
}

// ScrollColumns shifts the first visible column by delta.
func (m *Model) ScrollColumns(delta int) {
	m.colOffset = max(0, min(len(m.columns)-1, m.colOffset+delta))
	m.Invalidate()
}

// Update forwards keys to the focused filter and mouse clicks to row zones.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		for i := m.offset; i < min(len(m.rows), m.offset+m.visibleRows()); i++ {
			if zone.Get(m.rowZone(i)).InBounds(msg) {
				m.cursor = i
				idx := i
				return func() tea.Msg { return RowSelectedMsg{Index: idx} }
			}
		}
		return nil
	}

	if m.focused == "" {
		return nil
	}
	f := m.filters[m.focused]
	before := f.Value()
	var cmd tea.Cmd
	*f, cmd = f.Update(msg)
	if f.Value() == before {
		return cmd
	}
	m.Invalidate()
	log.Debug(log.CatUI, "filter changed", "column", m.focused, "value", f.Value())
	return tea.Batch(cmd, func() tea.Msg { return FilterChangedMsg{} })
}

// View renders the grid. Render must have been called after the last
// Invalidate for rows to reflect current data.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if len(m.columns) == 0 {
		return styles.FitWidth(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("Loading columns..."), m.width)
	}

	widths, cols := m.layout()
	out := []string{m.renderHeader(cols, widths), m.renderFilters(cols, widths)}
	out = append(out, lipgloss.NewStyle().Foreground(styles.BorderDefaultColor).Render(strings.Repeat("─", m.width)))

	if len(m.rows) == 0 {
		out = append(out, lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No results"))
	}
	end := min(len(m.lines), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		line := m.lines[i]
		if i == m.cursor {
			line = lipgloss.NewStyle().Background(styles.SelectionBackgroundColor).Render(styles.FitWidth(line, m.width))
		}
		out = append(out, zone.Mark(m.rowZone(i), line))
	}
	for len(out) < m.height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (m *Model) visibleRows() int {
	return max(m.height-chromeLines, 1)
}

func (m *Model) rowZone(i int) string {
	return fmt.Sprintf("%s-row-%d", m.zonePrefix, i)
}

// MinColumnWidth is the narrowest a column may be: 40% of the container
// shared by at most five columns.
func MinColumnWidth(container, columns int) int {
	if columns <= 0 {
		return container
	}
	return int(float64(container) * 0.4 / float64(min(maxColumns, columns)))
}

// layout returns the widths and names of the columns that fit, starting
// at colOffset.
func (m *Model) layout() ([]int, []string) {
	minW := max(MinColumnWidth(m.width, len(m.columns)), minCell)

	var widths []int
	var cols []string
	used := 0
	for _, c := range m.columns[min(m.colOffset, len(m.columns)):] {
		w := max(minW, runewidth.StringWidth(c))
		sep := 0
		if len(cols) > 0 {
			sep = 1
		}
		if used+sep+w > m.width {
			if len(cols) == 0 {
				w = m.width
			} else {
				break
			}
		}
		used += sep + w
		widths = append(widths, w)
		cols = append(cols, c)
	}
	return widths, cols
}

func (m *Model) ensureColumnVisible(column string) {
	for i, c := range m.columns {
		if c != column {
			continue
		}
		if i < m.colOffset {
			m.colOffset = i
			m.Invalidate()
			return
		}
		_, cols := m.layout()
		if i >= m.colOffset+len(cols) {
			m.colOffset = i
			m.Invalidate()
		}
		return
	}
}

func (m *Model) renderHeader(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = styles.HeaderStyle.Render(pad(styles.TruncateString(c, widths[i]), widths[i]))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderFilters(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		f, ok := m.filters[c]
		if !ok {
			parts[i] = strings.Repeat(" ", widths[i])
			continue
		}
		f.Width = max(widths[i]-1, 1)
		parts[i] = styles.FitWidth(f.View(), widths[i])
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderRows() []string {
	widths, cols := m.layout()

	matchers := make([]*highlight.Matcher, len(cols))
	for i, c := range cols {
		if f, ok := m.filters[c]; ok {
			matchers[i] = highlight.Compile(strings.TrimSpace(f.Value()))
		}
	}

	lines := make([]string, len(m.rows))
	base := lipgloss.NewStyle()
	for r, row := range m.rows {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = renderCell(row[c], matchers[i], widths[i], base)
		}
		lines[r] = strings.Join(parts, " ")
	}
	return lines
}

// renderCell truncates first and highlights after so escape codes are never cut.
// Only string values are highlighted.
func renderCell(v any, mt *highlight.Matcher, width int, base lipgloss.Style) string {
	text, isString := cellText(v)
	text = styles.TruncateString(text, width)
	if isString {
		return pad(mt.Render(text, base, styles.HighlightStyle), width)
	}
	return pad(text, width)
}

func cellText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.ReplaceAll(t, "\n", " "), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), false
	case bool:
		return strconv.FormatBool(t), false
	default:
		return fmt.Sprint(t), false
	}
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
