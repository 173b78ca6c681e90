// Package geometry owns the shapes drawn on the map: the pending or
// confirmed rectangle/circle, user-dropped markers, and the markers created
// from search results.
package geometry

import (
	"github.com/google/uuid"

	"github.com/zjrosen/geosift/internal/geo"
)

// Kind identifies the type of a shape.
type Kind int

const (
	KindRectangle Kind = iota
	KindCircle
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	case KindMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Style controls how a shape outline is drawn.
type Style struct {
	Color    string
	Dashed   bool
	Animated bool
}

var (
	// PendingStyle is applied to a completed but unconfirmed rectangle/circle.
	PendingStyle = Style{Color: "#3388FF", Dashed: true, Animated: true}
	// ConfirmedStyle is applied once the shape has been confirmed with Enter.
	ConfirmedStyle = Style{Color: "#FF0000"}
	// MarkerStyle is the fixed marker icon color.
	MarkerStyle = Style{Color: "#FF0000"}
)

// Geometry is the payload of a completed draw: Bounds for rectangles,
// Center+RadiusM for circles, Point for markers.
type Geometry struct {
	Bounds  geo.Bounds
	Center  geo.LatLng
	RadiusM float64
	Point   geo.LatLng
}

// Shape is a drawn or programmatically created map layer.
type Shape struct {
	ID        string
	Kind      Kind
	Geometry  Geometry
	Style     Style
	Draggable bool
	Popup     string
	PopupOpen bool
}

// Pending reports whether the shape still carries the pending style.
func (s *Shape) Pending() bool {
	return s.Kind != KindMarker && s.Style.Dashed
}

// Contains reports whether p lies inside a rectangle or circle.
// Markers contain nothing.
func (s *Shape) Contains(p geo.LatLng) bool {
	switch s.Kind {
	case KindRectangle:
		return s.Geometry.Bounds.Contains(p)
	case KindCircle:
		return geo.InCircle(s.Geometry.Center, s.Geometry.RadiusM, p)
	default:
		return false
	}
}

// Anchor returns the representative point used for hit testing and moves.
func (s *Shape) Anchor() geo.LatLng {
	switch s.Kind {
	case KindRectangle:
		return s.Geometry.Bounds.Center()
	case KindCircle:
		return s.Geometry.Center
	default:
		return s.Geometry.Point
	}
}

func newShape(kind Kind) *Shape {
	return &Shape{ID: uuid.NewString(), Kind: kind}
}
