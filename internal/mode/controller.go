package mode

import (
	"strings"
	"unicode"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/geometry"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/viewstate"
)

const (
	// AlertInvalidCoordinates is raised when typed coordinates fail validation.
	AlertInvalidCoordinates = "Invalid Coordinates"
	// AlertInvalidPaste is raised when pasted text is not a coordinate pair.
	AlertInvalidPaste = `Please paste valid coordinates in the format "lat, lon" or "lat lon" or "lat\tlon".`

	rejectEditWhileDrawing = "finish or cancel drawing before editing"
	rejectDrawWhileEditing = "leave edit mode before drawing"
)

// Controller owns State and applies transitions to the geometry overlay and
// the UI capabilities. It is not safe for concurrent use; call it from the
// Bubble Tea update loop only.
type Controller struct {
	state   State
	caps    Capabilities
	overlay *geometry.Overlay
	radiusM float64
}

// New creates a controller in the initial state: Idle, overlay hidden,
// editing off, map view shown. radiusM is the radius of typed-coordinate circles.
func New(overlay *geometry.Overlay, caps Capabilities, radiusM float64) *Controller {
	c := &Controller{
		caps:    caps,
		overlay: overlay,
		radiusM: radiusM,
	}
	overlay.OnCompleted(c.shapeCompleted)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Mode returns the current exclusive mode.
func (c *Controller) Mode() Mode {
	return c.state.Mode()
}

// ToggleRectangle enters or leaves DrawingRectangle.
func (c *Controller) ToggleRectangle() Outcome {
	return c.toggleDraw(DrawingRectangle)
}

// ToggleCircle enters or leaves DrawingCircle.
func (c *Controller) ToggleCircle() Outcome {
	return c.toggleDraw(DrawingCircle)
}

func (c *Controller) toggleDraw(target Mode) Outcome {
	out := c.begin()

	switch {
	case c.state.Draw == target:
		c.disableDrawer(target)
		c.state.Draw = Idle
	case c.state.Editing:
		out.Rejected = rejectDrawWhileEditing
	default:
		// Switching tools exits the other drawing mode in the same step.
		if c.state.Draw != Idle {
			c.disableDrawer(c.state.Draw)
		}
		kind, _ := target.Kind()
		c.overlay.StartDraw(kind)
		c.enableDrawer(target)
		c.state.Draw = target
	}

	return c.end(out)
}

// ToggleEdit enters or leaves Editing. Entering while a drawing mode is
// active is rejected.
func (c *Controller) ToggleEdit() Outcome {
	out := c.begin()

	switch {
	case c.state.Editing:
		c.disableEdit()
	case c.state.Draw != Idle:
		out.Rejected = rejectEditWhileDrawing
	default:
		if c.caps.Editor != nil {
			c.caps.Editor.EnableEdit()
		}
		c.state.Editing = true
	}

	return c.end(out)
}

// ToggleOverlay shows or hides the coordinate-entry panel.
func (c *Controller) ToggleOverlay() Outcome {
	out := c.begin()
	viewstate.ToggleOverlay(&c.state.View, c.caps.Surface)
	return c.end(out)
}

// ToggleView flips between the map and the table view.
func (c *Controller) ToggleView() Outcome {
	out := c.begin()
	viewstate.ToggleView(&c.state.View, c.caps.Surface)
	return c.end(out)
}

// ShowMap switches to the map view if the table view is showing.
func (c *Controller) ShowMap() Outcome {
	if !c.state.View.AltViewVisible {
		return c.end(c.begin())
	}
	return c.ToggleView()
}

// ShowTable switches to the table view if the map is showing.
func (c *Controller) ShowTable() Outcome {
	if c.state.View.AltViewVisible {
		return c.end(c.begin())
	}
	return c.ToggleView()
}

// Escape closes the coordinate overlay when it is open. Otherwise it clears
// every drawn shape, closes result popups, disarms both drawing tools and
// requests a search.
func (c *Controller) Escape() Outcome {
	out := c.begin()

	if c.state.View.OverlayVisible {
		viewstate.ToggleOverlay(&c.state.View, c.caps.Surface)
		return c.end(out)
	}

	c.overlay.Clear()
	c.overlay.ClosePopups()
	c.disableDrawer(DrawingRectangle)
	c.disableDrawer(DrawingCircle)
	c.state.Draw = Idle
	out.Search = true

	return c.end(out)
}

// Enter submits the coordinate overlay when it is open, then confirms any
// pending shape, leaves drawing and editing, and requests a search.
func (c *Controller) Enter() Outcome {
	out := c.begin()

	if c.state.View.OverlayVisible {
		out = out.merge(c.submitCoordinates())
	}
	c.confirm()
	out.Search = true

	return c.end(out)
}

// submitCoordinates validates the overlay fields and places a circle.
// Empty fields are ignored; invalid ones raise an alert and leave the
// overlay open with its input in place.
func (c *Controller) submitCoordinates() Outcome {
	var out Outcome
	if c.caps.Form == nil {
		return out
	}

	lat, lon := c.caps.Form.Values()
	if lat == "" || lon == "" {
		return out
	}

	p, err := geo.ParseLatLng(lat, lon)
	if err != nil {
		log.Debug(log.CatMode, "coordinate submit rejected", "lat", lat, "lon", lon, "error", err)
		out.Alert = AlertInvalidCoordinates
		return out
	}

	out = out.merge(c.placeCircle(p))
	if out.Alert == "" && c.state.View.OverlayVisible {
		viewstate.ToggleOverlay(&c.state.View, c.caps.Surface)
	}
	return out
}

// PlaceCircle places a confirmed circle at p and requests a search.
func (c *Controller) PlaceCircle(p geo.LatLng) Outcome {
	out := c.begin()
	out = out.merge(c.placeCircle(p))
	return c.end(out)
}

func (c *Controller) placeCircle(p geo.LatLng) Outcome {
	var out Outcome
	s, err := c.overlay.PlaceCircleAt(p.Lat, p.Lng, c.radiusM)
	if err != nil {
		out.Alert = AlertInvalidCoordinates
		return out
	}
	c.confirm()
	out.Placed = s
	out.Search = true
	return out
}

// PasteCoordinates fills the coordinate fields from clipboard text split on
// whitespace and commas. Anything but exactly two values raises an alert.
func (c *Controller) PasteCoordinates(text string) Outcome {
	out := c.begin()

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(parts) != 2 {
		out.Alert = AlertInvalidPaste
		return c.end(out)
	}
	if c.caps.Form != nil {
		c.caps.Form.SetValues(parts[0], parts[1])
	}
	return c.end(out)
}

// confirm commits pending shapes and returns to Idle.
func (c *Controller) confirm() {
	c.overlay.Commit()
	if c.state.Draw != Idle {
		c.disableDrawer(c.state.Draw)
		c.state.Draw = Idle
	}
	if c.state.Editing {
		c.disableEdit()
	}
}

func (c *Controller) disableEdit() {
	if c.caps.Editor != nil {
		c.caps.Editor.DisableEdit()
	}
	c.state.Editing = false
}

func (c *Controller) drawer(m Mode) Drawer {
	switch m {
	case DrawingRectangle:
		return c.caps.Rectangle
	case DrawingCircle:
		return c.caps.Circle
	default:
		return nil
	}
}

func (c *Controller) enableDrawer(m Mode) {
	if d := c.drawer(m); d != nil {
		d.Enable()
	}
}

func (c *Controller) disableDrawer(m Mode) {
	if d := c.drawer(m); d != nil {
		d.Disable()
	}
}

// shapeCompleted keeps the drawing mode active so the user sees the pending
// shape until Enter or Escape.
func (c *Controller) shapeCompleted(e geometry.Event) {
	log.Debug(log.CatMode, "shape completed", "kind", e.Kind, "mode", c.state.Mode())
}

func (c *Controller) begin() Outcome {
	return Outcome{From: c.state.Mode()}
}

func (c *Controller) end(out Outcome) Outcome {
	out.To = c.state.Mode()
	if out.Transitioned() {
		log.Info(log.CatMode, "mode transition", "from", out.From, "to", out.To)
	}
	if out.Rejected != "" {
		log.Debug(log.CatMode, "transition rejected", "mode", out.From, "reason", out.Rejected)
	}
	return out
}
