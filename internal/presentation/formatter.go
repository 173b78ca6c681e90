package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// MaxCellWidth caps table cells; longer values are truncated with an ellipsis.
const MaxCellWidth = 40

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatColumns formats the column lists as JSON
func (f *Formatter) FormatColumns(columns ColumnsDTO) error {
	return f.encode(columns)
}

// FormatResults formats a search result as JSON
func (f *Formatter) FormatResults(result SearchResultDTO) error {
	return f.encode(result)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatTable writes the rows as an aligned text table restricted to columns,
// followed by a summary line.
func (f *Formatter) FormatTable(columns []string, result SearchResultDTO) error {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	cells := make([][]string, len(result.Results))
	for r, row := range result.Results {
		cells[r] = make([]string, len(columns))
		for i, c := range columns {
			text := runewidth.Truncate(CellText(row[c]), MaxCellWidth, "…")
			cells[r][i] = text
			widths[i] = max(widths[i], runewidth.StringWidth(text))
		}
	}

	var b strings.Builder
	writeRow(&b, columns, widths)
	sep := make([]string, len(columns))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(&b, sep, widths)
	for _, row := range cells {
		writeRow(&b, row, widths)
	}
	fmt.Fprintf(&b, "\n%d results in %s ms\n", result.Count, strconv.FormatFloat(result.TimeTakenMs, 'f', 1, 64))

	_, err := io.WriteString(f.writer, b.String())
	return err
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(c)
			continue
		}
		b.WriteString(runewidth.FillRight(c, widths[i]))
	}
	b.WriteByte('\n')
}

// CellText renders a decoded JSON value as a single line.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(t, "\n", " ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
