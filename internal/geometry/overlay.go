package geometry

import (
	"errors"
	"fmt"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/log"
)

// DefaultCircleRadiusM is the radius used for circles placed from typed coordinates.
const DefaultCircleRadiusM = 50000.0

var (
	// ErrUnknownShape is returned when an ID does not match any shape.
	ErrUnknownShape = errors.New("unknown shape")
	// ErrNotDraggable is returned when a drag ends on a shape that cannot be dragged.
	ErrNotDraggable = errors.New("shape is not draggable")
)

// Viewport recenters the map. Implemented by the map surface.
type Viewport interface {
	SetView(center geo.LatLng, zoom int)
}

// Event is delivered to registered callbacks.
type Event struct {
	Kind  Kind
	Shape *Shape
}

// Callback receives overlay events synchronously on the update loop.
type Callback func(Event)

// Overlay owns every drawn shape and the search result marker registry.
// All methods must be called from the Bubble Tea update loop.
type Overlay struct {
	drawn   []*Shape
	results []*Shape

	// Pending references; at most one non-marker shape is drawn at a time.
	rectangle *Shape
	circle    *Shape
	draft     *Shape

	viewport  Viewport
	placeZoom int

	onCompleted []Callback
	onDragEnd   []Callback
}

// New creates an overlay that recenters viewport to placeZoom on PlaceCircleAt.
// viewport may be nil.
func New(viewport Viewport, placeZoom int) *Overlay {
	return &Overlay{viewport: viewport, placeZoom: placeZoom}
}

// SetViewport replaces the recenter target.
func (o *Overlay) SetViewport(v Viewport) {
	o.viewport = v
}

// OnCompleted registers a callback fired after every OnShapeCompleted.
func (o *Overlay) OnCompleted(fn Callback) {
	o.onCompleted = append(o.onCompleted, fn)
}

// OnDragEnd registers a callback fired after a marker drag ends.
func (o *Overlay) OnDragEnd(fn Callback) {
	o.onDragEnd = append(o.onDragEnd, fn)
}

// StartDraw removes previously drawn rectangles and circles and returns a
// handle to the shape about to be drawn. Markers survive.
func (o *Overlay) StartDraw(kind Kind) *Shape {
	o.clearRegions()
	o.draft = newShape(kind)
	log.Debug(log.CatGeom, "draw started", "kind", kind, "id", o.draft.ID)
	return o.draft
}

// Draft returns the in-progress handle, or nil.
func (o *Overlay) Draft() *Shape {
	return o.draft
}

// OnShapeCompleted stores a finished drag. Rectangles and circles get the
// pending style; markers get the fixed icon and become draggable.
func (o *Overlay) OnShapeCompleted(kind Kind, g Geometry) (*Shape, error) {
	if err := validate(kind, g); err != nil {
		return nil, err
	}

	s := o.draft
	if s == nil || s.Kind != kind {
		s = newShape(kind)
	}
	o.draft = nil
	s.Geometry = g

	switch kind {
	case KindMarker:
		s.Style = MarkerStyle
		s.Draggable = true
	case KindRectangle:
		o.clearRegions()
		s.Style = PendingStyle
		o.rectangle = s
	case KindCircle:
		o.clearRegions()
		s.Style = PendingStyle
		o.circle = s
	}
	o.drawn = append(o.drawn, s)

	log.Debug(log.CatGeom, "shape completed", "kind", kind, "id", s.ID)
	for _, fn := range o.onCompleted {
		fn(Event{Kind: kind, Shape: s})
	}
	return s, nil
}

// Commit switches pending rectangles and circles to the confirmed style and
// stops their animation. Returns the number of shapes changed.
func (o *Overlay) Commit() int {
	n := 0
	for _, s := range []*Shape{o.rectangle, o.circle} {
		if s == nil || !s.Pending() {
			continue
		}
		s.Style = ConfirmedStyle
		n++
	}
	if n > 0 {
		log.Debug(log.CatGeom, "shapes committed", "count", n)
	}
	return n
}

// Clear removes every drawn shape and resets the pending references.
// Result markers are owned by the registry and are not affected.
func (o *Overlay) Clear() {
	o.drawn = nil
	o.rectangle = nil
	o.circle = nil
	o.draft = nil
	log.Debug(log.CatGeom, "overlay cleared")
}

// PlaceCircleAt validates the point, replaces any drawn region with a
// confirmed circle of radiusM meters and recenters the view on it.
// radiusM <= 0 uses DefaultCircleRadiusM.
func (o *Overlay) PlaceCircleAt(lat, lng, radiusM float64) (*Shape, error) {
	center := geo.LatLng{Lat: lat, Lng: lng}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusM <= 0 {
		radiusM = DefaultCircleRadiusM
	}

	o.StartDraw(KindCircle)
	s, err := o.OnShapeCompleted(KindCircle, Geometry{Center: center, RadiusM: radiusM})
	if err != nil {
		return nil, err
	}
	o.Commit()

	if o.viewport != nil {
		o.viewport.SetView(center, o.placeZoom)
	}
	return s, nil
}

// DragEnd moves a draggable marker to p and opens its coordinate popup.
func (o *Overlay) DragEnd(id string, p geo.LatLng) (*Shape, error) {
	s := o.Find(id)
	if s == nil {
		return nil, fmt.Errorf("drag end %s: %w", id, ErrUnknownShape)
	}
	if !s.Draggable {
		return nil, fmt.Errorf("drag end %s: %w", id, ErrNotDraggable)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("drag end %s: %w", id, err)
	}

	s.Geometry.Point = p
	s.Popup = p.Popup()
	s.PopupOpen = true

	for _, fn := range o.onDragEnd {
		fn(Event{Kind: s.Kind, Shape: s})
	}
	return s, nil
}

// Move translates a drawn shape by delta degrees. Used by edit mode.
func (o *Overlay) Move(id string, delta geo.LatLng) error {
	s := o.findDrawn(id)
	if s == nil {
		return fmt.Errorf("move %s: %w", id, ErrUnknownShape)
	}

	g := s.Geometry
	switch s.Kind {
	case KindRectangle:
		g.Bounds = g.Bounds.Translate(delta)
	case KindCircle:
		g.Center = geo.LatLng{Lat: g.Center.Lat + delta.Lat, Lng: g.Center.Lng + delta.Lng}
	case KindMarker:
		g.Point = geo.LatLng{Lat: g.Point.Lat + delta.Lat, Lng: g.Point.Lng + delta.Lng}
	}
	if err := validate(s.Kind, g); err != nil {
		return fmt.Errorf("move %s: %w", id, err)
	}
	s.Geometry = g
	return nil
}

// ClosePopups hides every open popup.
func (o *Overlay) ClosePopups() {
	for _, s := range o.drawn {
		s.PopupOpen = false
	}
	for _, s := range o.results {
		s.PopupOpen = false
	}
}

// Shapes returns the drawn shapes in creation order.
func (o *Overlay) Shapes() []*Shape {
	return append([]*Shape(nil), o.drawn...)
}

// Rectangle returns the current rectangle reference, or nil.
func (o *Overlay) Rectangle() *Shape {
	return o.rectangle
}

// Circle returns the current circle reference, or nil.
func (o *Overlay) Circle() *Shape {
	return o.circle
}

// Region returns the drawn rectangle or circle, or nil.
func (o *Overlay) Region() *Shape {
	if o.rectangle != nil {
		return o.rectangle
	}
	return o.circle
}

// Find looks a shape up by ID among drawn shapes and result markers.
func (o *Overlay) Find(id string) *Shape {
	if s := o.findDrawn(id); s != nil {
		return s
	}
	for _, s := range o.results {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (o *Overlay) findDrawn(id string) *Shape {
	for _, s := range o.drawn {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// clearRegions drops drawn rectangles and circles and keeps markers.
func (o *Overlay) clearRegions() {
	kept := o.drawn[:0]
	for _, s := range o.drawn {
		if s.Kind == KindMarker {
			kept = append(kept, s)
		}
	}
	o.drawn = kept
	o.rectangle = nil
	o.circle = nil
}

func validate(kind Kind, g Geometry) error {
	switch kind {
	case KindRectangle:
		if err := g.Bounds.SouthWest.Validate(); err != nil {
			return err
		}
		return g.Bounds.NorthEast.Validate()
	case KindCircle:
		if g.RadiusM <= 0 {
			return fmt.Errorf("circle radius %v must be positive", g.RadiusM)
		}
		return g.Center.Validate()
	case KindMarker:
		return g.Point.Validate()
	default:
		return fmt.Errorf("unsupported shape kind %d", kind)
	}
}
