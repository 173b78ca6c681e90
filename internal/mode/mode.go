// Package mode implements the interaction mode controller: drawing,
// editing, the coordinate overlay and the map/table switch. Transition
// methods are the only mutators of State.
package mode

import (
	"github.com/zjrosen/geosift/internal/geometry"
	"github.com/zjrosen/geosift/internal/viewstate"
)

// Mode is the exclusive interaction mode.
type Mode int

const (
	Idle Mode = iota
	DrawingRectangle
	DrawingCircle
	Editing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case DrawingRectangle:
		return "drawing-rectangle"
	case DrawingCircle:
		return "drawing-circle"
	case Editing:
		return "editing"
	default:
		return "unknown"
	}
}

// Kind returns the shape kind drawn in this mode. ok is false for Idle and Editing.
func (m Mode) Kind() (geometry.Kind, bool) {
	switch m {
	case DrawingRectangle:
		return geometry.KindRectangle, true
	case DrawingCircle:
		return geometry.KindCircle, true
	default:
		return 0, false
	}
}

// State is the single state object owned by the Controller.
// Draw is Idle, DrawingRectangle or DrawingCircle; Editing is tracked
// separately so "not drawing, but editing" is representable.
type State struct {
	Draw    Mode
	Editing bool
	View    viewstate.Flags
}

// Mode collapses the state into the exclusive enum.
func (s State) Mode() Mode {
	if s.Draw != Idle {
		return s.Draw
	}
	if s.Editing {
		return Editing
	}
	return Idle
}

// Drawer arms and disarms a drawing tool on the map surface.
type Drawer interface {
	Enable()
	Disable()
}

// Editor switches the map surface's edit handles on and off.
type Editor interface {
	EnableEdit()
	DisableEdit()
}

// CoordinateForm is the lat/lon entry panel.
type CoordinateForm interface {
	Values() (lat, lon string)
	SetValues(lat, lon string)
}

// Capabilities are the collaborators the Controller drives. Any may be nil.
type Capabilities struct {
	Rectangle Drawer
	Circle    Drawer
	Editor    Editor
	Form      CoordinateForm
	Surface   viewstate.Surface
}

// Outcome describes the effect of one transition call.
type Outcome struct {
	From   Mode
	To     Mode
	Search bool
	// Alert is shown in a blocking modal when non-empty.
	Alert string
	// Rejected explains why a key had no effect.
	Rejected string
	// Placed is the circle created from typed coordinates, if any.
	Placed *geometry.Shape
}

// Transitioned reports whether the exclusive mode changed.
func (o Outcome) Transitioned() bool {
	return o.From != o.To
}

// merge folds the side effects of a nested call into o.
func (o Outcome) merge(other Outcome) Outcome {
	o.Search = o.Search || other.Search
	if other.Alert != "" {
		o.Alert = other.Alert
	}
	if other.Rejected != "" {
		o.Rejected = other.Rejected
	}
	if other.Placed != nil {
		o.Placed = other.Placed
	}
	return o
}
