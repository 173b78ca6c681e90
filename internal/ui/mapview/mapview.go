// Package mapview is the terminal map surface. It projects the geometry
// overlay onto cells, arms the rectangle and circle drawing tools, moves
// shapes in edit mode and reports the pointer position for the readout.
package mapview

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/geometry"
	"github.com/zjrosen/geosift/internal/keys"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/mode"
)

// AnimationInterval is the pending outline march speed.
const AnimationInterval = 200 * time.Millisecond

// ToggleViewMsg is sent when the on-map view control is clicked.
type ToggleViewMsg struct{}

// TickMsg advances the pending outline animation.
type TickMsg struct{}

type tool int

const (
	toolNone tool = iota
	toolRectangle
	toolCircle
)

// Model is the map surface. It is a pointer type: the mode controller
// holds its drawing tools and editor.
type Model struct {
	overlay *geometry.Overlay
	proj    geo.Projection

	tool    tool
	editing bool

	col, row int

	// Drawing: anchor is the first corner or the circle center.
	anchor *geo.LatLng

	// Edit mode keyboard selection and mouse grab.
	selected string
	grabbed  string
	grabCol  int
	grabRow  int

	dashOffset int
	ticking    bool

	zoneID string
}

// New creates a map centered on center at zoom. zoneID names the mouse zone.
func New(overlay *geometry.Overlay, center geo.LatLng, zoom int, zoneID string) *Model {
	return &Model{
		overlay: overlay,
		proj:    geo.Projection{Center: center, Zoom: geo.ClampZoom(zoom)},
		zoneID:  zoneID,
	}
}

// SetSize sets the map size in cells and keeps the cursor on the grid.
func (m *Model) SetSize(width, height int) {
	first := m.proj.Width == 0 && m.proj.Height == 0
	m.proj.Width, m.proj.Height = max(width, 1), max(height, 1)
	if first {
		m.col, m.row = m.proj.Width/2, m.proj.Height/2
		return
	}
	m.col = max(0, min(m.proj.Width-1, m.col))
	m.row = max(0, min(m.proj.Height-1, m.row))
}

// SetView recenters the map. Implements geometry.Viewport.
func (m *Model) SetView(center geo.LatLng, zoom int) {
	m.proj.Center = center
	m.proj.Zoom = geo.ClampZoom(zoom)
	m.col, m.row = m.proj.Width/2, m.proj.Height/2
	log.Debug(log.CatUI, "map view set", "center", center, "zoom", m.proj.Zoom)
}

// Center returns the map center.
func (m *Model) Center() geo.LatLng {
	return m.proj.Center
}

// Zoom returns the zoom level.
func (m *Model) Zoom() int {
	return m.proj.Zoom
}

// Cursor returns the coordinate under the crosshair.
func (m *Model) Cursor() geo.LatLng {
	return m.proj.FromCell(m.col, m.row)
}

// CursorCell returns the crosshair cell.
func (m *Model) CursorCell() (col, row int) {
	return m.col, m.row
}

// drawer arms one tool on the map.
type drawer struct {
	m    *Model
	tool tool
}

func (d drawer) Enable() {
	d.m.tool = d.tool
	d.m.anchor = nil
}

func (d drawer) Disable() {
	if d.m.tool == d.tool {
		d.m.tool = toolNone
		d.m.anchor = nil
	}
}

// RectangleTool returns the rectangle drawer.
func (m *Model) RectangleTool() mode.Drawer {
	return drawer{m: m, tool: toolRectangle}
}

// CircleTool returns the circle drawer.
func (m *Model) CircleTool() mode.Drawer {
	return drawer{m: m, tool: toolCircle}
}

// EnableEdit turns on edit handles.
func (m *Model) EnableEdit() {
	m.editing = true
}

// DisableEdit turns off edit handles and drops the selection.
func (m *Model) DisableEdit() {
	m.editing = false
	m.selected = ""
	m.grabbed = ""
}

// Animate returns the tick command when a pending shape needs animating
// and no tick is in flight.
func (m *Model) Animate() tea.Cmd {
	if m.ticking || !m.hasPending() {
		return nil
	}
	m.ticking = true
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(AnimationInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func (m *Model) hasPending() bool {
	for _, s := range m.overlay.Shapes() {
		if s.Pending() {
			return true
		}
	}
	return false
}

// Update handles navigation keys, mouse input and animation ticks. Mode
// keys are handled by the dispatcher before they reach the map.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case TickMsg:
		if !m.hasPending() {
			m.ticking = false
			return nil
		}
		m.dashOffset = (m.dashOffset + 1) % 4
		return tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	km := keys.Map
	switch {
	case key.Matches(msg, km.Up):
		m.step(0, -1)
	case key.Matches(msg, km.Down):
		m.step(0, 1)
	case key.Matches(msg, km.Left):
		m.step(-1, 0)
	case key.Matches(msg, km.Right):
		m.step(1, 0)
	case key.Matches(msg, km.ZoomIn):
		m.zoom(1)
	case key.Matches(msg, km.ZoomOut):
		m.zoom(-1)
	case key.Matches(msg, km.Marker):
		m.dropMarker(m.Cursor())
	case key.Matches(msg, km.Anchor):
		if m.editing {
			m.selectAt(m.col, m.row)
			return nil
		}
		m.anchorAt(m.Cursor())
		return m.Animate()
	}
	return nil
}

// step moves the selected shape in edit mode, otherwise the crosshair.
// The map pans when the crosshair would leave the grid.
func (m *Model) step(dCol, dRow int) {
	if m.editing && m.selected != "" {
		m.nudge(m.selected, dCol, dRow)
		return
	}

	col, row := m.col+dCol, m.row+dRow
	if col < 0 || col >= m.proj.Width || row < 0 || row >= m.proj.Height {
		m.proj = m.proj.Pan(dCol, dRow)
		return
	}
	m.col, m.row = col, row
}

func (m *Model) zoom(delta int) {
	z := geo.ClampZoom(m.proj.Zoom + delta)
	if z == m.proj.Zoom {
		return
	}
	cursor := m.Cursor()
	m.proj.Zoom = z
	if c, r, ok := m.proj.ToCell(cursor); ok {
		m.col, m.row = c, r
	}
}

func (m *Model) dropMarker(p geo.LatLng) {
	if _, err := m.overlay.OnShapeCompleted(geometry.KindMarker, geometry.Geometry{Point: p}); err != nil {
		log.ErrorErr(log.CatGeom, "marker rejected", err, "point", p)
	}
}

// anchorAt sets the first point of a draw, or completes the shape when an
// anchor is already set. Degenerate shapes keep the anchor.
func (m *Model) anchorAt(p geo.LatLng) {
	if m.tool == toolNone {
		return
	}
	if m.anchor == nil {
		m.anchor = &p
		return
	}
	if m.complete(*m.anchor, p) {
		m.anchor = nil
	}
}

func (m *Model) complete(from, to geo.LatLng) bool {
	fc, fr, _ := m.proj.ToCell(from)
	tc, tr, _ := m.proj.ToCell(to)
	if fc == tc && fr == tr {
		return false
	}

	var (
		kind geometry.Kind
		g    geometry.Geometry
	)
	switch m.tool {
	case toolRectangle:
		kind = geometry.KindRectangle
		g.Bounds = geo.NewBounds(from, to)
	case toolCircle:
		kind = geometry.KindCircle
		g.Center = from
		g.RadiusM = geo.Distance(from, to)
	default:
		return false
	}

	if _, err := m.overlay.OnShapeCompleted(kind, g); err != nil {
		log.ErrorErr(log.CatGeom, "shape rejected", err, "kind", kind)
		return false
	}
	return true
}

// selectAt selects the drawn shape under the cell, or clears the selection.
func (m *Model) selectAt(col, row int) {
	m.selected = ""
	if s := m.shapeAt(col, row, true); s != nil {
		m.selected = s.ID
	}
}

// nudge moves a drawn shape by whole cells at its anchor.
func (m *Model) nudge(id string, dCol, dRow int) {
	s := m.overlay.Find(id)
	if s == nil {
		m.selected = ""
		return
	}
	c, r, _ := m.proj.ToCell(s.Anchor())
	m.moveTo(s, m.proj.FromCell(c, r), m.proj.FromCell(c+dCol, r+dRow))
}

// moveTo translates s by the difference between two points. Markers go
// through DragEnd so their coordinate popup follows.
func (m *Model) moveTo(s *geometry.Shape, from, to geo.LatLng) {
	if s.Kind == geometry.KindMarker {
		p := s.Geometry.Point
		p.Lat += to.Lat - from.Lat
		p.Lng += to.Lng - from.Lng
		if _, err := m.overlay.DragEnd(s.ID, p); err != nil {
			log.ErrorErr(log.CatGeom, "marker move rejected", err)
		}
		return
	}
	delta := geo.LatLng{Lat: to.Lat - from.Lat, Lng: to.Lng - from.Lng}
	if err := m.overlay.Move(s.ID, delta); err != nil {
		log.ErrorErr(log.CatGeom, "shape move rejected", err)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	x, y := zone.Get(m.zoneID).Pos(msg)
	if x < 0 || y < 0 {
		return nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.zoom(1)
		return nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.zoom(-1)
		return nil
	}

	m.col = max(0, min(m.proj.Width-1, x))
	m.row = max(0, min(m.proj.Height-1, y))
	p := m.Cursor()

	if msg.Button != tea.MouseButtonLeft {
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if y == 0 && x >= m.proj.Width-toggleWidth {
			return nil
		}
		switch {
		case m.tool != toolNone:
			m.anchor = &p
		case m.editing:
			if s := m.shapeAt(x, y, true); s != nil {
				m.grabbed = s.ID
				m.selected = s.ID
			}
		default:
			s := m.shapeAt(x, y, false)
			switch {
			case s == nil || s.Kind != geometry.KindMarker:
				m.overlay.ClosePopups()
			case s.Draggable:
				m.grabbed = s.ID
				m.grabCol, m.grabRow = x, y
			default:
				s.PopupOpen = !s.PopupOpen
			}
		}

	case tea.MouseActionRelease:
		if y == 0 && x >= m.proj.Width-toggleWidth && m.anchor == nil && m.grabbed == "" {
			return func() tea.Msg { return ToggleViewMsg{} }
		}
		if m.anchor != nil {
			if m.complete(*m.anchor, p) {
				m.anchor = nil
			}
			return m.Animate()
		}
		if m.grabbed != "" {
			s := m.overlay.Find(m.grabbed)
			m.grabbed = ""
			if s == nil {
				return nil
			}
			if s.Kind == geometry.KindMarker {
				// Released where it was pressed: a click, not a drag.
				if !m.editing && x == m.grabCol && y == m.grabRow {
					s.PopupOpen = !s.PopupOpen
					return nil
				}
				if _, err := m.overlay.DragEnd(s.ID, p); err != nil {
					log.ErrorErr(log.CatGeom, "drag end rejected", err)
				}
				return nil
			}
			c, r, _ := m.proj.ToCell(s.Anchor())
			m.moveTo(s, m.proj.FromCell(c, r), p)
		}
	}
	return nil
}

// shapeAt finds the shape under a cell. Markers win over regions. With
// drawnOnly, search result markers are skipped.
func (m *Model) shapeAt(col, row int, drawnOnly bool) *geometry.Shape {
	candidates := m.overlay.Shapes()
	if !drawnOnly {
		candidates = append(candidates, m.overlay.ResultMarkers()...)
	}

	for _, s := range candidates {
		if s.Kind != geometry.KindMarker {
			continue
		}
		if c, r, ok := m.proj.ToCell(s.Geometry.Point); ok && c == col && r == row {
			return s
		}
	}

	p := m.proj.FromCell(col, row)
	for _, s := range candidates {
		if s.Kind != geometry.KindMarker && s.Contains(p) {
			return s
		}
	}
	return nil
}
