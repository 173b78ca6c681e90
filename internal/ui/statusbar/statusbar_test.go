package statusbar

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/geosift/internal/geo"
)

func TestFormatMetadata_RoundsMilliseconds(t *testing.T) {
	require.Equal(t, "Number of results: 12    Time taken: 4ms", FormatMetadata(12, 3.6))
	require.Equal(t, "Number of results: 0    Time taken: 0ms", FormatMetadata(0, 0.2))
}

func TestView_ShowsEverything(t *testing.T) {
	m := New().
		SetWidth(120).
		SetMode("drawing-circle").
		SetMetadata(3, 12.4).
		SetRegion(2, true).
		SetCursor(geo.LatLng{Lat: 39.212156, Lng: -99.734376})

	view := m.View()
	require.Contains(t, view, "DRAWING-CIRCLE")
	require.Contains(t, view, "Number of results: 3    Time taken: 12ms")
	require.Contains(t, view, "In region: 2")
	require.Contains(t, view, "Lat: 39.21216, Lng: -99.73438")
	require.Equal(t, 120, lipgloss.Width(view))
}

func TestView_CursorHiddenInTableView(t *testing.T) {
	m := New().SetWidth(80).SetMode("idle").SetCursorVisible(false)

	require.False(t, m.CursorVisible())
	require.NotContains(t, m.View(), "Lat:")
}

func TestMetadata_EmptyBeforeFirstResponse(t *testing.T) {
	m := New()
	require.Empty(t, m.Metadata())
	require.NotContains(t, m.SetWidth(80).View(), "Number of results")
}
