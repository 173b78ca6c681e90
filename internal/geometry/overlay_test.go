package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/geosift/internal/geo"
)

type recordingViewport struct {
	center geo.LatLng
	zoom   int
	calls  int
}

func (v *recordingViewport) SetView(center geo.LatLng, zoom int) {
	v.center = center
	v.zoom = zoom
	v.calls++
}

func rect(a, b geo.LatLng) Geometry {
	return Geometry{Bounds: geo.NewBounds(a, b)}
}

func TestStartDraw_ClearsRegionsKeepsMarkers(t *testing.T) {
	o := New(nil, 5)
	_, err := o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	_, err = o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))
	require.NoError(t, err)

	draft := o.StartDraw(KindCircle)

	require.NotNil(t, draft)
	require.Equal(t, KindCircle, draft.Kind)
	require.Nil(t, o.Rectangle())
	require.Len(t, o.Shapes(), 1)
	require.Equal(t, KindMarker, o.Shapes()[0].Kind)
}

func TestOnShapeCompleted_RectangleIsPending(t *testing.T) {
	o := New(nil, 5)
	draft := o.StartDraw(KindRectangle)

	s, err := o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))
	require.NoError(t, err)

	require.Equal(t, draft.ID, s.ID, "completion reuses the draft handle")
	require.Equal(t, PendingStyle, s.Style)
	require.True(t, s.Pending())
	require.Same(t, s, o.Rectangle())
	require.Nil(t, o.Draft())
}

func TestOnShapeCompleted_AtMostOnePendingRegion(t *testing.T) {
	o := New(nil, 5)
	_, err := o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))
	require.NoError(t, err)
	c, err := o.OnShapeCompleted(KindCircle, Geometry{Center: geo.LatLng{Lat: 1, Lng: 1}, RadiusM: 1000})
	require.NoError(t, err)

	require.Nil(t, o.Rectangle())
	require.Same(t, c, o.Circle())
	require.Len(t, o.Shapes(), 1)
}

func TestOnShapeCompleted_MarkerIsDraggable(t *testing.T) {
	o := New(nil, 5)

	s, err := o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 10, Lng: 10}})
	require.NoError(t, err)

	require.True(t, s.Draggable)
	require.Equal(t, MarkerStyle, s.Style)
	require.False(t, s.Pending())
}

func TestOnShapeCompleted_RejectsInvalidGeometry(t *testing.T) {
	o := New(nil, 5)

	_, err := o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 95, Lng: 0}})
	require.ErrorIs(t, err, geo.ErrLatitudeRange)

	_, err = o.OnShapeCompleted(KindCircle, Geometry{Center: geo.LatLng{}, RadiusM: 0})
	require.Error(t, err)
	require.Empty(t, o.Shapes())
}

func TestOnShapeCompleted_FiresCallbacks(t *testing.T) {
	o := New(nil, 5)
	var got []Event
	o.OnCompleted(func(e Event) { got = append(got, e) })

	s, err := o.OnShapeCompleted(KindCircle, Geometry{Center: geo.LatLng{Lat: 1, Lng: 1}, RadiusM: 10})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.Equal(t, KindCircle, got[0].Kind)
	require.Same(t, s, got[0].Shape)
}

func TestCommit_SolidifiesPendingShapes(t *testing.T) {
	o := New(nil, 5)
	s, err := o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))
	require.NoError(t, err)

	require.Equal(t, 1, o.Commit())
	require.Equal(t, ConfirmedStyle, s.Style)
	require.False(t, s.Style.Animated)
	require.False(t, s.Style.Dashed)

	require.Equal(t, 0, o.Commit(), "second commit changes nothing")
}

func TestClear_RemovesAllDrawnShapes(t *testing.T) {
	o := New(nil, 5)
	_, _ = o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 1, Lng: 1}})
	_, _ = o.OnShapeCompleted(KindCircle, Geometry{Center: geo.LatLng{Lat: 1, Lng: 1}, RadiusM: 10})
	o.ReplaceMarkers([]map[string]any{{"lat": 1.0, "lon": 2.0}})

	o.Clear()

	require.Empty(t, o.Shapes())
	require.Nil(t, o.Circle())
	require.Nil(t, o.Rectangle())
	require.Len(t, o.ResultMarkers(), 1, "result markers belong to the registry")
}

func TestPlaceCircleAt_CreatesConfirmedCircleAndRecenters(t *testing.T) {
	vp := &recordingViewport{}
	o := New(vp, 5)
	_, _ = o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))

	s, err := o.PlaceCircleAt(39.2, -99.7, 0)
	require.NoError(t, err)

	require.Equal(t, KindCircle, s.Kind)
	require.Equal(t, DefaultCircleRadiusM, s.Geometry.RadiusM)
	require.Equal(t, ConfirmedStyle, s.Style)
	require.Nil(t, o.Rectangle())
	require.Len(t, o.Shapes(), 1)
	require.Equal(t, 1, vp.calls)
	require.Equal(t, geo.LatLng{Lat: 39.2, Lng: -99.7}, vp.center)
	require.Equal(t, 5, vp.zoom)
}

func TestPlaceCircleAt_RejectsOutOfRange(t *testing.T) {
	vp := &recordingViewport{}
	o := New(vp, 5)

	_, err := o.PlaceCircleAt(0, 181, 0)

	require.ErrorIs(t, err, geo.ErrLongitudeRange)
	require.Empty(t, o.Shapes())
	require.Zero(t, vp.calls)
}

func TestProperty_PlaceCircleAtCreatesExactlyOneCircle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		o := New(nil, 5)
		prior := rapid.IntRange(0, 3).Draw(rt, "prior")
		for i := 0; i < prior; i++ {
			_, _ = o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 1, Lng: 1}))
		}

		lat := rapid.Float64Range(-90, 90).Draw(rt, "lat")
		lng := rapid.Float64Range(-180, 180).Draw(rt, "lng")
		_, err := o.PlaceCircleAt(lat, lng, 0)
		require.NoError(rt, err)

		circles := 0
		for _, s := range o.Shapes() {
			require.NotEqual(rt, KindRectangle, s.Kind)
			if s.Kind == KindCircle {
				circles++
			}
		}
		require.Equal(rt, 1, circles)
	})
}

func TestDragEnd_UpdatesPopup(t *testing.T) {
	o := New(nil, 5)
	var dragged []Event
	o.OnDragEnd(func(e Event) { dragged = append(dragged, e) })
	m, err := o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)

	_, err = o.DragEnd(m.ID, geo.LatLng{Lat: 43.263012, Lng: -2.934987})
	require.NoError(t, err)

	require.Equal(t, "Coordinates:\nLat: 43.26301\nLon: -2.93499", m.Popup)
	require.True(t, m.PopupOpen)
	require.Len(t, dragged, 1)
}

func TestClosePopups(t *testing.T) {
	o := New(nil, 5)
	m, err := o.OnShapeCompleted(KindMarker, Geometry{Point: geo.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	_, err = o.DragEnd(m.ID, geo.LatLng{Lat: 2, Lng: 2})
	require.NoError(t, err)
	o.ReplaceMarkers([]map[string]any{{"name": "Cafe", "lat": 3.0, "lon": 3.0}})
	result := o.ResultMarkers()[0]
	result.PopupOpen = true

	o.ClosePopups()

	require.False(t, m.PopupOpen)
	require.False(t, result.PopupOpen)
	require.NotEmpty(t, m.Popup, "popup text is kept for the next open")
}

func TestDragEnd_Errors(t *testing.T) {
	o := New(nil, 5)
	c, _ := o.OnShapeCompleted(KindCircle, Geometry{Center: geo.LatLng{Lat: 1, Lng: 1}, RadiusM: 10})

	_, err := o.DragEnd("missing", geo.LatLng{})
	require.True(t, errors.Is(err, ErrUnknownShape))

	_, err = o.DragEnd(c.ID, geo.LatLng{})
	require.True(t, errors.Is(err, ErrNotDraggable))
}

func TestMove_TranslatesShapes(t *testing.T) {
	o := New(nil, 5)
	r, _ := o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))

	require.NoError(t, o.Move(r.ID, geo.LatLng{Lat: 1, Lng: 1}))
	require.Equal(t, geo.LatLng{Lat: 1, Lng: 1}, r.Geometry.Bounds.SouthWest)

	err := o.Move(r.ID, geo.LatLng{Lat: 100})
	require.ErrorIs(t, err, geo.ErrLatitudeRange)
	require.Equal(t, geo.LatLng{Lat: 1, Lng: 1}, r.Geometry.Bounds.SouthWest, "invalid moves leave the shape in place")
}

func TestReplaceMarkers(t *testing.T) {
	o := New(nil, 5)
	o.ReplaceMarkers([]map[string]any{{"lat": 5.0, "lon": 5.0}})

	n := o.ReplaceMarkers([]map[string]any{
		{"lat": nil, "lon": 1.0, "name": "skipped"},
		{"lat": "43.26", "lon": "-2.93", "name": "Guggenheim", "address": "Abandoibarra 2", "city": "Bilbao"},
		{"lat": 300.0, "lon": 1.0},
	})

	require.Equal(t, 1, n)
	markers := o.ResultMarkers()
	require.Len(t, markers, 1)
	require.Equal(t, "Guggenheim\nAbandoibarra 2\nBilbao Row: 2", markers[0].Popup)
	require.False(t, markers[0].Draggable)
}

func TestCountInRegion(t *testing.T) {
	o := New(nil, 5)
	o.ReplaceMarkers([]map[string]any{
		{"lat": 1.0, "lon": 1.0},
		{"lat": 5.0, "lon": 5.0},
	})

	_, ok := o.CountInRegion()
	require.False(t, ok)

	_, _ = o.OnShapeCompleted(KindRectangle, rect(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 2, Lng: 2}))
	n, ok := o.CountInRegion()
	require.True(t, ok)
	require.Equal(t, 1, n)
}
