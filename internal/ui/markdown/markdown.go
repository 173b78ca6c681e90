// Package markdown renders markdown for the terminal with glamour.
package markdown

import (
	"github.com/charmbracelet/glamour"
)

// noMarginStyle removes glamour's document margins so panels control padding.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps a glamour renderer with a fixed wrap width.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// New creates a renderer. style is "dark", "light" or empty for terminal detection.
func New(width int, style string) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(style))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	opts = append(opts, glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)))

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width}, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(md string) (string, error) {
	return r.renderer.Render(md)
}
