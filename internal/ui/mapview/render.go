package mapview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/geometry"
	"github.com/zjrosen/geosift/internal/ui/overlay"
	"github.com/zjrosen/geosift/internal/ui/styles"
)

const toggleLabel = "2 table"

var toggleWidth = lipgloss.Width(styles.ButtonStyle.Render(toggleLabel))

// Graticule spacing candidates in degrees, widest first.
var graticuleSteps = []float64{45, 30, 15, 10, 5, 2, 1, 0.5, 0.2, 0.1, 0.05, 0.02, 0.01, 0.005, 0.002, 0.001}

const minGraticuleGap = 10 // cells

// Layers are painted in increasing order; a higher layer wins a cell.
type layer int

const (
	layerEmpty layer = iota
	layerGraticule
	layerPreview
	layerPending
	layerConfirmed
	layerSelected
	layerResult
	layerMarker
	layerAnchor
	layerCrosshair
)

var layerStyles = map[layer]lipgloss.Style{
	layerGraticule: lipgloss.NewStyle().Foreground(styles.TextMutedColor).Faint(true),
	layerPreview:   lipgloss.NewStyle().Foreground(styles.TextSecondaryColor),
	layerPending:   lipgloss.NewStyle().Foreground(styles.PendingShapeColor),
	layerConfirmed: lipgloss.NewStyle().Foreground(styles.ConfirmedShapeColor),
	layerSelected:  lipgloss.NewStyle().Foreground(styles.BorderFocusColor).Bold(true),
	layerResult:    lipgloss.NewStyle().Foreground(styles.ResultMarkerColor),
	layerMarker:    lipgloss.NewStyle().Foreground(styles.MarkerColor).Bold(true),
	layerAnchor:    lipgloss.NewStyle().Foreground(styles.StatusWarningColor),
	layerCrosshair: lipgloss.NewStyle().Foreground(styles.CrosshairColor).Bold(true),
}

var popupStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.OverlayBorderColor).
	Foreground(styles.TextPrimaryColor).
	Padding(0, 1)

type cell struct {
	r rune
	l layer
}

type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) set(col, row int, r rune, l layer) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	i := row*c.w + col
	if l >= c.cells[i].l {
		c.cells[i] = cell{r: r, l: l}
	}
}

func (c *canvas) at(col, row int) cell {
	return c.cells[row*c.w+col]
}

// String renders the canvas, styling runs of cells on the same layer.
func (c *canvas) String() string {
	var b strings.Builder
	for row := range c.h {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		cur := layerEmpty
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if style, ok := layerStyles[cur]; ok {
				b.WriteString(style.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := range c.w {
			cl := c.at(col, row)
			if cl.l != cur {
				flush()
				cur = cl.l
			}
			run.WriteRune(cl.r)
		}
		flush()
	}
	return b.String()
}

// View renders the map, its shapes, open popups and the view control.
func (m *Model) View() string {
	w, h := m.proj.Width, m.proj.Height
	if w == 0 || h == 0 {
		return ""
	}

	c := newCanvas(w, h)
	m.drawGraticule(c)
	for _, s := range m.overlay.Shapes() {
		m.drawShape(c, s)
	}
	for _, s := range m.overlay.ResultMarkers() {
		if col, row, ok := m.proj.ToCell(s.Geometry.Point); ok {
			c.set(col, row, '●', layerResult)
		}
	}
	m.drawPreview(c)
	c.set(m.col, m.row, '+', layerCrosshair)

	body := c.String()
	body = m.drawPopups(body)

	zoom := styles.HintStyle.Render(fmt.Sprintf("z%d", m.proj.Zoom))
	body = overlay.Place(overlay.Config{Width: w, Height: h, Position: overlay.At}, zoom, body)
	toggle := styles.ButtonStyle.Render(toggleLabel)
	body = overlay.Place(overlay.Config{Width: w, Height: h, Position: overlay.At, X: w - toggleWidth}, toggle, body)

	return zone.Mark(m.zoneID, body)
}

func (m *Model) drawGraticule(c *canvas) {
	degPerCol := math.Abs(m.proj.FromCell(1, 0).Lng - m.proj.FromCell(0, 0).Lng)
	if degPerCol == 0 {
		return
	}
	step := graticuleStep(degPerCol)

	var cols, rows []bool
	for col := range c.w {
		a, b := m.proj.FromCell(col, 0).Lng, m.proj.FromCell(col+1, 0).Lng
		cols = append(cols, b > a && math.Floor(a/step) != math.Floor(b/step))
	}
	for row := range c.h {
		a, b := m.proj.FromCell(0, row).Lat, m.proj.FromCell(0, row+1).Lat
		rows = append(rows, math.Floor(a/step) != math.Floor(b/step))
	}

	for row := range c.h {
		for col := range c.w {
			switch {
			case cols[col] && rows[row]:
				c.set(col, row, '┼', layerGraticule)
			case cols[col]:
				c.set(col, row, '│', layerGraticule)
			case rows[row]:
				c.set(col, row, '─', layerGraticule)
			}
		}
	}
}

func graticuleStep(degPerCol float64) float64 {
	step := graticuleSteps[0]
	for _, s := range graticuleSteps {
		if s/degPerCol < minGraticuleGap {
			break
		}
		step = s
	}
	return step
}

func (m *Model) shapeLayer(s *geometry.Shape) layer {
	switch {
	case m.editing && s.ID == m.selected:
		return layerSelected
	case s.Pending():
		return layerPending
	default:
		return layerConfirmed
	}
}

func (m *Model) drawShape(c *canvas, s *geometry.Shape) {
	l := m.shapeLayer(s)
	switch s.Kind {
	case geometry.KindRectangle:
		m.drawRect(c, s.Geometry.Bounds, l, s.Pending())
	case geometry.KindCircle:
		m.drawCircle(c, s.Geometry.Center, s.Geometry.RadiusM, l, s.Pending())
	case geometry.KindMarker:
		if col, row, ok := m.proj.ToCell(s.Geometry.Point); ok {
			if l == layerSelected {
				c.set(col, row, '◆', l)
			} else {
				c.set(col, row, '◆', layerMarker)
			}
		}
		return
	}

	if m.editing {
		if col, row, ok := m.proj.ToCell(s.Anchor()); ok {
			c.set(col, row, '■', l)
		}
	}
}

// dashOn reports whether perimeter position i is drawn. Solid outlines
// are always on; dashed ones march with the animation offset.
func (m *Model) dashOn(i int, dashed bool) bool {
	return !dashed || (i+m.dashOffset)%4 < 2
}

func (m *Model) drawRect(c *canvas, b geo.Bounds, l layer, dashed bool) {
	nw := geo.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}
	se := geo.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}
	c1, r1, _ := m.proj.ToCell(nw)
	c2, r2, _ := m.proj.ToCell(se)

	h, v := '─', '│'
	if dashed {
		h, v = '╌', '╎'
	}

	// Walk the perimeter clockwise so dashes run continuously.
	i := 0
	plot := func(col, row int, r rune) {
		if m.dashOn(i, dashed) {
			c.set(col, row, r, l)
		}
		i++
	}
	for col := c1; col <= c2; col++ {
		plot(col, r1, h)
	}
	for row := r1 + 1; row <= r2; row++ {
		plot(c2, row, v)
	}
	for col := c2 - 1; col >= c1; col-- {
		plot(col, r2, h)
	}
	for row := r2 - 1; row > r1; row-- {
		plot(c1, row, v)
	}

	if !dashed && c2 > c1 && r2 > r1 {
		c.set(c1, r1, '┌', l)
		c.set(c2, r1, '┐', l)
		c.set(c1, r2, '└', l)
		c.set(c2, r2, '┘', l)
	}
}

func (m *Model) drawCircle(c *canvas, center geo.LatLng, radiusM float64, l layer, dashed bool) {
	perCell := m.proj.MetersPerCell()
	if perCell <= 0 {
		return
	}
	n := int(2 * math.Pi * radiusM / perCell * 2)
	n = max(24, min(2048, n))

	r := '•'
	if dashed {
		r = '·'
	}
	for i := range n {
		theta := 2 * math.Pi * float64(i) / float64(n)
		p := geo.Offset(center, radiusM*math.Cos(theta), radiusM*math.Sin(theta))
		col, row, ok := m.proj.ToCell(p)
		if ok && m.dashOn(i/3, dashed) {
			c.set(col, row, r, l)
		}
	}
}

// drawPreview outlines the shape being drawn from the anchor to the cursor.
func (m *Model) drawPreview(c *canvas) {
	if m.anchor == nil {
		return
	}
	cursor := m.Cursor()
	switch m.tool {
	case toolRectangle:
		m.drawRect(c, geo.NewBounds(*m.anchor, cursor), layerPreview, true)
	case toolCircle:
		if d := geo.Distance(*m.anchor, cursor); d > 0 {
			m.drawCircle(c, *m.anchor, d, layerPreview, true)
		}
	}
	if col, row, ok := m.proj.ToCell(*m.anchor); ok {
		c.set(col, row, '◇', layerAnchor)
	}
}

// drawPopups places each open popup above its marker, or below when the
// marker is near the top edge.
func (m *Model) drawPopups(body string) string {
	shapes := append(m.overlay.Shapes(), m.overlay.ResultMarkers()...)
	for _, s := range shapes {
		if !s.PopupOpen || s.Popup == "" {
			continue
		}
		col, row, ok := m.proj.ToCell(s.Anchor())
		if !ok {
			continue
		}
		box := popupStyle.Render(s.Popup)
		bw, bh := lipgloss.Width(box), lipgloss.Height(box)
		y := row - bh
		if y < 0 {
			y = row + 1
		}
		body = overlay.Place(overlay.Config{
			Width:    m.proj.Width,
			Height:   m.proj.Height,
			Position: overlay.At,
			X:        max(0, col-bw/2),
			Y:        y,
		}, box, body)
	}
	return body
}
