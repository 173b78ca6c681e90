package mode

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/geometry"
)

type fakeDrawer struct {
	enabled  bool
	enables  int
	disables int
}

func (d *fakeDrawer) Enable()  { d.enabled = true; d.enables++ }
func (d *fakeDrawer) Disable() { d.enabled = false; d.disables++ }

type fakeEditor struct{ enabled bool }

func (e *fakeEditor) EnableEdit()  { e.enabled = true }
func (e *fakeEditor) DisableEdit() { e.enabled = false }

type fakeForm struct{ lat, lon string }

func (f *fakeForm) Values() (string, string) { return f.lat, f.lon }
func (f *fakeForm) SetValues(lat, lon string) { f.lat, f.lon = lat, lon }

type fakeSurface struct {
	panel   bool
	mapOn   bool
	altOn   bool
	readout bool
	form    *fakeForm
}

func (s *fakeSurface) SetOverlayPanelVisible(v bool) { s.panel = v }
func (s *fakeSurface) ClearCoordinateFields() {
	if s.form != nil {
		s.form.SetValues("", "")
	}
}
func (s *fakeSurface) SetMapVisible(v bool)           { s.mapOn = v }
func (s *fakeSurface) SetAltViewVisible(v bool)       { s.altOn = v }
func (s *fakeSurface) SetCursorReadoutVisible(v bool) { s.readout = v }

type harness struct {
	c       *Controller
	overlay *geometry.Overlay
	rect    *fakeDrawer
	circle  *fakeDrawer
	editor  *fakeEditor
	form    *fakeForm
	surface *fakeSurface
}

func newHarness() *harness {
	h := &harness{
		overlay: geometry.New(nil, 5),
		rect:    &fakeDrawer{},
		circle:  &fakeDrawer{},
		editor:  &fakeEditor{},
		form:    &fakeForm{},
	}
	h.surface = &fakeSurface{mapOn: true, readout: true, form: h.form}
	h.c = New(h.overlay, Capabilities{
		Rectangle: h.rect,
		Circle:    h.circle,
		Editor:    h.editor,
		Form:      h.form,
		Surface:   h.surface,
	}, geometry.DefaultCircleRadiusM)
	return h
}

func square() geometry.Geometry {
	return geometry.Geometry{Bounds: geo.NewBounds(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2})}
}

func TestNew_StartsIdle(t *testing.T) {
	h := newHarness()

	require.Equal(t, Idle, h.c.Mode())
	require.Equal(t, State{}, h.c.State())
}

func TestToggleRectangle_TwiceReturnsToIdle(t *testing.T) {
	h := newHarness()

	out := h.c.ToggleRectangle()
	require.Equal(t, Idle, out.From)
	require.Equal(t, DrawingRectangle, out.To)
	require.True(t, h.rect.enabled)
	require.NotNil(t, h.overlay.Draft())

	out = h.c.ToggleRectangle()
	require.Equal(t, Idle, out.To)
	require.False(t, h.rect.enabled)
	require.False(t, out.Search)
}

func TestToggleCircle_SwitchesFromRectangleInOneStep(t *testing.T) {
	h := newHarness()
	h.c.ToggleRectangle()

	out := h.c.ToggleCircle()

	require.Equal(t, DrawingRectangle, out.From)
	require.Equal(t, DrawingCircle, out.To)
	require.False(t, h.rect.enabled)
	require.True(t, h.circle.enabled)
	kind := h.overlay.Draft().Kind
	require.Equal(t, geometry.KindCircle, kind)
}

func TestToggleEdit_RejectedWhileDrawing(t *testing.T) {
	h := newHarness()
	h.c.ToggleCircle()

	out := h.c.ToggleEdit()

	require.NotEmpty(t, out.Rejected)
	require.False(t, out.Transitioned())
	require.Equal(t, DrawingCircle, h.c.Mode())
	require.False(t, h.editor.enabled)
}

func TestToggleDraw_RejectedWhileEditing(t *testing.T) {
	h := newHarness()
	h.c.ToggleEdit()
	require.Equal(t, Editing, h.c.Mode())

	out := h.c.ToggleRectangle()

	require.NotEmpty(t, out.Rejected)
	require.Equal(t, Editing, h.c.Mode())
	require.False(t, h.rect.enabled)

	h.c.ToggleEdit()
	require.Equal(t, Idle, h.c.Mode())
	require.False(t, h.editor.enabled)
}

func TestEscape_ClosesOverlayFirst(t *testing.T) {
	h := newHarness()
	h.c.ToggleRectangle()
	_, err := h.overlay.OnShapeCompleted(geometry.KindRectangle, square())
	require.NoError(t, err)
	h.c.ToggleOverlay()
	require.True(t, h.surface.panel)

	out := h.c.Escape()

	require.False(t, out.Search)
	require.False(t, h.c.State().View.OverlayVisible)
	require.False(t, h.surface.panel)
	require.NotNil(t, h.overlay.Rectangle(), "closing the overlay keeps shapes")
	require.Equal(t, DrawingRectangle, h.c.Mode())
}

func TestEscape_ClearsAndDisarmsBothDrawers(t *testing.T) {
	h := newHarness()
	h.c.ToggleCircle()
	_, err := h.overlay.OnShapeCompleted(geometry.KindCircle, geometry.Geometry{Center: geo.LatLng{Lat: 1, Lng: 1}, RadiusM: 100})
	require.NoError(t, err)

	out := h.c.Escape()

	require.True(t, out.Search)
	require.Equal(t, Idle, out.To)
	require.Empty(t, h.overlay.Shapes())
	require.False(t, h.circle.enabled)
	require.False(t, h.rect.enabled)
	require.Equal(t, 1, h.rect.disables)
	require.Equal(t, 1, h.circle.disables)
}

func TestEscape_ClosesResultPopups(t *testing.T) {
	h := newHarness()
	h.overlay.ReplaceMarkers([]map[string]any{{"name": "Cafe", "lat": 43.26, "lon": -2.93}})
	results := h.overlay.ResultMarkers()
	require.Len(t, results, 1)
	results[0].PopupOpen = true

	h.c.Escape()

	require.False(t, results[0].PopupOpen)
	require.Len(t, h.overlay.ResultMarkers(), 1, "result markers survive Escape")
}

func TestEnter_CommitsPendingAndRequestsSearch(t *testing.T) {
	h := newHarness()
	h.c.ToggleRectangle()
	s, err := h.overlay.OnShapeCompleted(geometry.KindRectangle, square())
	require.NoError(t, err)
	require.True(t, s.Pending())
	require.Equal(t, DrawingRectangle, h.c.Mode(), "completion keeps the drawing mode")

	out := h.c.Enter()

	require.True(t, out.Search)
	require.Equal(t, Idle, out.To)
	require.False(t, s.Pending())
	require.Equal(t, geometry.ConfirmedStyle, s.Style)
	require.False(t, h.rect.enabled)
}

func TestEnter_LeavesEditing(t *testing.T) {
	h := newHarness()
	h.c.ToggleEdit()

	out := h.c.Enter()

	require.Equal(t, Editing, out.From)
	require.Equal(t, Idle, out.To)
	require.False(t, h.editor.enabled)
}

func TestEnter_InvalidCoordinatesAlertAndKeepOverlay(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
	}{
		{name: "latitude out of range", lat: "91", lon: "0"},
		{name: "longitude out of range", lat: "0", lon: "-181"},
		{name: "not numeric", lat: "12abc", lon: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.c.ToggleOverlay()
			h.form.SetValues(tt.lat, tt.lon)

			out := h.c.Enter()

			require.Equal(t, AlertInvalidCoordinates, out.Alert)
			require.Nil(t, out.Placed)
			require.True(t, h.c.State().View.OverlayVisible)
			require.Empty(t, h.overlay.Shapes())
			lat, lon := h.form.Values()
			require.Equal(t, tt.lat, lat, "input stays in place")
			require.Equal(t, tt.lon, lon)
		})
	}
}

func TestEnter_EmptyCoordinatesIsNoop(t *testing.T) {
	h := newHarness()
	h.c.ToggleOverlay()
	h.form.SetValues("43.2", "")

	out := h.c.Enter()

	require.Empty(t, out.Alert)
	require.Nil(t, out.Placed)
	require.True(t, h.c.State().View.OverlayVisible)
	require.Empty(t, h.overlay.Shapes())
}

func TestEnter_ValidCoordinatesPlaceOneCircle(t *testing.T) {
	h := newHarness()
	h.c.ToggleRectangle()
	_, err := h.overlay.OnShapeCompleted(geometry.KindRectangle, square())
	require.NoError(t, err)
	h.c.ToggleOverlay()
	h.form.SetValues(" 43.263 ", "-2.935")

	out := h.c.Enter()

	require.True(t, out.Search)
	require.Empty(t, out.Alert)
	require.NotNil(t, out.Placed)
	require.Equal(t, geo.LatLng{Lat: 43.263, Lng: -2.935}, out.Placed.Geometry.Center)
	require.Equal(t, geometry.DefaultCircleRadiusM, out.Placed.Geometry.RadiusM)
	require.Equal(t, Idle, h.c.Mode())
	require.False(t, h.c.State().View.OverlayVisible)
	require.False(t, h.surface.panel)

	shapes := h.overlay.Shapes()
	require.Len(t, shapes, 1)
	require.Equal(t, geometry.KindCircle, shapes[0].Kind)
	require.False(t, shapes[0].Pending())
}

func TestSubmitCoordinates_WithoutForm(t *testing.T) {
	c := New(geometry.New(nil, 5), Capabilities{}, geometry.DefaultCircleRadiusM)

	out := c.submitCoordinates()

	require.Equal(t, Outcome{}, out)
}

func TestPlaceCircle_RejectsInvalidPoint(t *testing.T) {
	h := newHarness()

	out := h.c.PlaceCircle(geo.LatLng{Lat: 0, Lng: 200})

	require.Equal(t, AlertInvalidCoordinates, out.Alert)
	require.False(t, out.Search)
	require.Empty(t, h.overlay.Shapes())
}

func TestPasteCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		lat, lon string
		alert    string
	}{
		{name: "comma and space", text: "43.26, -2.93", lat: "43.26", lon: "-2.93"},
		{name: "tab", text: "43.26\t-2.93", lat: "43.26", lon: "-2.93"},
		{name: "single space", text: "43.26 -2.93", lat: "43.26", lon: "-2.93"},
		{name: "trailing newline", text: "43.26,-2.93\n", lat: "43.26", lon: "-2.93"},
		{name: "one value", text: "43.26", alert: AlertInvalidPaste},
		{name: "three values", text: "1 2 3", alert: AlertInvalidPaste},
		{name: "empty", text: "", alert: AlertInvalidPaste},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			out := h.c.PasteCoordinates(tt.text)

			require.Equal(t, tt.alert, out.Alert)
			lat, lon := h.form.Values()
			require.Equal(t, tt.lat, lat)
			require.Equal(t, tt.lon, lon)
		})
	}
}

func TestShowMapAndShowTable(t *testing.T) {
	h := newHarness()

	h.c.ShowMap()
	require.False(t, h.c.State().View.AltViewVisible, "map already showing")

	h.c.ShowTable()
	require.True(t, h.c.State().View.AltViewVisible)
	require.False(t, h.surface.mapOn)
	require.True(t, h.surface.altOn)

	h.c.ShowTable()
	require.True(t, h.c.State().View.AltViewVisible, "table already showing")

	h.c.ShowMap()
	require.False(t, h.c.State().View.AltViewVisible)
	require.True(t, h.surface.mapOn)
	require.True(t, h.surface.readout)
}

func TestToggleOverlay_ClearsFields(t *testing.T) {
	h := newHarness()
	h.form.SetValues("1", "2")

	h.c.ToggleOverlay()

	lat, lon := h.form.Values()
	require.Empty(t, lat)
	require.Empty(t, lon)
	require.True(t, h.surface.panel)
}

// Every reachable state keeps exactly one exclusive mode with its drawer armed
// and the other disarmed.
func TestProperty_ModeMatchesArmedDrawers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness()
		actions := []func() Outcome{
			h.c.ToggleRectangle,
			h.c.ToggleCircle,
			h.c.ToggleEdit,
			h.c.ToggleOverlay,
			h.c.ToggleView,
			h.c.Escape,
			h.c.Enter,
		}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			idx := rapid.IntRange(0, len(actions)-1).Draw(rt, "action")
			out := actions[idx]()

			m := h.c.Mode()
			require.Equal(rt, m, out.To)
			require.Equal(rt, m == DrawingRectangle, h.rect.enabled)
			require.Equal(rt, m == DrawingCircle, h.circle.enabled)
			require.Equal(rt, m == Editing, h.editor.enabled)
			require.False(rt, h.c.State().Draw != Idle && h.c.State().Editing)
			require.Equal(rt, h.c.State().View.OverlayVisible, h.surface.panel)
			require.NotEqual(rt, h.surface.mapOn, h.surface.altOn)
		}
	})
}

// After Enter nothing is left pending.
func TestProperty_EnterLeavesNoPendingShapes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness()
		if rapid.Bool().Draw(rt, "circle") {
			h.c.ToggleCircle()
			_, err := h.overlay.OnShapeCompleted(geometry.KindCircle, geometry.Geometry{
				Center:  geo.LatLng{Lat: rapid.Float64Range(-80, 80).Draw(rt, "lat"), Lng: 0},
				RadiusM: rapid.Float64Range(1, 100000).Draw(rt, "r"),
			})
			require.NoError(rt, err)
		} else {
			h.c.ToggleRectangle()
			_, err := h.overlay.OnShapeCompleted(geometry.KindRectangle, square())
			require.NoError(rt, err)
		}

		out := h.c.Enter()

		require.True(rt, out.Search)
		for _, s := range h.overlay.Shapes() {
			require.False(rt, s.Pending())
		}
	})
}
