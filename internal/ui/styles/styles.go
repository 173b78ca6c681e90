// Package styles contains Lip Gloss style definitions.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#696969"} // hints, footers, graticule
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#777777"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF8787"}

	// Map layers. Pending and confirmed outlines follow the drawing colors.
	PendingShapeColor   = lipgloss.Color("#3388FF")
	ConfirmedShapeColor = lipgloss.Color("#FF0000")
	MarkerColor         = lipgloss.Color("#FF0000")
	ResultMarkerColor   = lipgloss.AdaptiveColor{Light: "#8250DF", Dark: "#CBA6F7"}
	CrosshairColor      = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#FFFFFF"}

	// Grid
	SelectionBackgroundColor = lipgloss.AdaptiveColor{Light: "#DDF4FF", Dark: "#2D3F55"}
	HighlightBackgroundColor = lipgloss.AdaptiveColor{Light: "#FFF8C5", Dark: "#F9E2AF"}
	HighlightForegroundColor = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#1E1E2E"}

	// Overlay panels
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#8C8C8C"}

	HighlightStyle = lipgloss.NewStyle().
			Foreground(HighlightForegroundColor).
			Background(HighlightBackgroundColor).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().Foreground(TextMutedColor).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	ModeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1A5276")).
			Padding(0, 1).
			Bold(true)

	HintStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2D3436")).
			Padding(0, 1)
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// Panel renders content inside a rounded border with the title set into
// the top edge: ╭─ Title ───╮. Content is clipped or padded to fit exactly
// width x height cells including the border.
func Panel(content, title string, width, height int, focused bool) string {
	color := lipgloss.TerminalColor(BorderDefaultColor)
	if focused {
		color = BorderFocusColor
	}
	border := lipgloss.NewStyle().Foreground(color)
	titleStyle := lipgloss.NewStyle().Foreground(OverlayTitleColor).Bold(focused)

	inner := max(width-2, 1)
	rows := max(height-2, 1)

	var b strings.Builder
	b.WriteString(topEdge(title, inner, border, titleStyle))

	lines := strings.Split(content, "\n")
	for i := range rows {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		b.WriteString("\n")
		b.WriteString(border.Render(borderVertical))
		b.WriteString(FitWidth(line, inner))
		b.WriteString(border.Render(borderVertical))
	}

	b.WriteString("\n")
	b.WriteString(border.Render(borderBottomLeft + strings.Repeat(borderHorizontal, inner) + borderBottomRight))
	return b.String()
}

func topEdge(title string, inner int, border, titleStyle lipgloss.Style) string {
	// Room for "─ " + title + " ─".
	if title == "" || inner < 5 {
		return border.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	}
	title = TruncateString(title, inner-4)
	rest := max(inner-3-lipgloss.Width(title), 0)
	return border.Render(borderTopLeft+borderHorizontal+" ") +
		titleStyle.Render(title) +
		border.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}

// FitWidth pads or cuts an ANSI-styled line to exactly w cells.
func FitWidth(line string, w int) string {
	if lipgloss.Width(line) > w {
		line = lipgloss.NewStyle().MaxWidth(w).Render(line)
	}
	if pad := w - lipgloss.Width(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	return line
}

// TruncateString cuts plain text to maxWidth cells, ending in "..." when cut.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
