// Package dispatch maps key events to mode transitions.
//
// Decide is a pure function of the key, the focus context and the overlay
// flag. Handle applies a decision through the mode controller. Every key
// resolves to exactly one Action, and at most one transition runs per key.
package dispatch

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"

	"github.com/zjrosen/geosift/internal/keys"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/mode"
)

// Focus is the input context a key arrives in.
type Focus int

const (
	// FocusNone means no text input has focus.
	FocusNone Focus = iota
	// FocusCoordinate is the latitude or longitude field.
	FocusCoordinate
	// FocusText is any other text input, such as a column filter.
	FocusText
)

func (f Focus) String() string {
	switch f {
	case FocusNone:
		return "none"
	case FocusCoordinate:
		return "coordinate"
	case FocusText:
		return "text"
	default:
		return "unknown"
	}
}

// Action is what a key resolves to.
type Action int

const (
	ActionIgnore Action = iota
	ActionToggleRectangle
	ActionToggleCircle
	ActionToggleEdit
	ActionToggleOverlay
	ActionEscape
	ActionEnter
	ActionShowMap
	ActionShowTable
	// ActionForward hands the key to the focused input unchanged.
	ActionForward
)

var actionNames = map[Action]string{
	ActionIgnore:          "ignore",
	ActionToggleRectangle: "toggle-rectangle",
	ActionToggleCircle:    "toggle-circle",
	ActionToggleEdit:      "toggle-edit",
	ActionToggleOverlay:   "toggle-overlay",
	ActionEscape:          "escape",
	ActionEnter:           "enter",
	ActionShowMap:         "show-map",
	ActionShowTable:       "show-table",
	ActionForward:         "forward",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Decision is the result of Decide.
type Decision struct {
	Action Action
	// Blur asks the caller to drop input focus before the action runs.
	Blur bool
}

// Decide resolves a key event. With a text input focused only Enter and
// Escape are intercepted: they blur the field and continue only from a
// coordinate field. Space still toggles an open overlay. Anything else is
// forwarded to the input.
func Decide(msg tea.KeyMsg, focus Focus, overlayVisible bool) Decision {
	km := keys.Map

	if focus != FocusNone {
		switch {
		case key.Matches(msg, km.Enter):
			if focus == FocusCoordinate {
				return Decision{Action: ActionEnter, Blur: true}
			}
			return Decision{Action: ActionIgnore, Blur: true}
		case key.Matches(msg, km.Escape):
			if focus == FocusCoordinate {
				return Decision{Action: ActionEscape, Blur: true}
			}
			return Decision{Action: ActionIgnore, Blur: true}
		case key.Matches(msg, km.Overlay) && overlayVisible:
			return Decision{Action: ActionToggleOverlay, Blur: true}
		default:
			return Decision{Action: ActionForward}
		}
	}

	switch {
	case key.Matches(msg, km.Rectangle):
		return Decision{Action: ActionToggleRectangle}
	case key.Matches(msg, km.Circle):
		return Decision{Action: ActionToggleCircle}
	case key.Matches(msg, km.Edit):
		return Decision{Action: ActionToggleEdit}
	case key.Matches(msg, km.Overlay):
		return Decision{Action: ActionToggleOverlay}
	case key.Matches(msg, km.Escape):
		return Decision{Action: ActionEscape}
	case key.Matches(msg, km.Enter):
		return Decision{Action: ActionEnter}
	case key.Matches(msg, km.MapView):
		return Decision{Action: ActionShowMap}
	case key.Matches(msg, km.TableView):
		return Decision{Action: ActionShowTable}
	default:
		return Decision{Action: ActionIgnore}
	}
}

// Blurrer drops focus from whichever text input holds it.
type Blurrer interface {
	Blur()
}

// Result is what Handle did with a key.
type Result struct {
	Decision Decision
	Outcome  mode.Outcome
}

// Handled reports whether the key was consumed by the dispatcher. Ignored
// keys with no focus are left for the caller's navigation bindings.
func (r Result) Handled() bool {
	return r.Decision.Action != ActionIgnore || r.Decision.Blur
}

// Dispatcher applies decisions through a mode controller.
type Dispatcher struct {
	ctrl  *mode.Controller
	focus Blurrer
}

// New creates a dispatcher. focus may be nil.
func New(ctrl *mode.Controller, focus Blurrer) *Dispatcher {
	return &Dispatcher{ctrl: ctrl, focus: focus}
}

// Handle decides and applies one key event.
func (d *Dispatcher) Handle(msg tea.KeyMsg, focus Focus) Result {
	dec := Decide(msg, focus, d.ctrl.State().View.OverlayVisible)
	res := Result{Decision: dec}

	if dec.Blur && d.focus != nil {
		d.focus.Blur()
	}

	switch dec.Action {
	case ActionToggleRectangle:
		res.Outcome = d.ctrl.ToggleRectangle()
	case ActionToggleCircle:
		res.Outcome = d.ctrl.ToggleCircle()
	case ActionToggleEdit:
		res.Outcome = d.ctrl.ToggleEdit()
	case ActionToggleOverlay:
		res.Outcome = d.ctrl.ToggleOverlay()
	case ActionEscape:
		res.Outcome = d.ctrl.Escape()
	case ActionEnter:
		res.Outcome = d.ctrl.Enter()
	case ActionShowMap:
		res.Outcome = d.ctrl.ShowMap()
	case ActionShowTable:
		res.Outcome = d.ctrl.ShowTable()
	default:
		m := d.ctrl.Mode()
		res.Outcome = mode.Outcome{From: m, To: m}
	}

	if dec.Action != ActionIgnore && dec.Action != ActionForward {
		log.Debug(log.CatKeys, "key dispatched", "key", msg.String(), "focus", focus, "action", dec.Action)
	}
	return res
}
