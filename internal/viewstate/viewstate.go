// Package viewstate holds the two binary visibility flags of the UI: the
// coordinate-entry overlay and the map/table view switch.
package viewstate

// Flags are the view booleans. Both start false: overlay hidden, map shown.
type Flags struct {
	OverlayVisible bool
	AltViewVisible bool
}

// Surface applies visibility changes to the rendered UI.
type Surface interface {
	SetOverlayPanelVisible(visible bool)
	ClearCoordinateFields()
	SetMapVisible(visible bool)
	SetAltViewVisible(visible bool)
	SetCursorReadoutVisible(visible bool)
}

// ToggleOverlay flips the overlay flag, shows or hides the coordinate panel
// and clears both coordinate fields on entry and on exit.
func ToggleOverlay(f *Flags, s Surface) {
	f.OverlayVisible = !f.OverlayVisible
	if s == nil {
		return
	}
	s.SetOverlayPanelVisible(f.OverlayVisible)
	s.ClearCoordinateFields()
}

// ToggleView flips between the map and the alternate (table) view. Exactly
// one of the two containers is visible, and the cursor readout follows the map.
func ToggleView(f *Flags, s Surface) {
	f.AltViewVisible = !f.AltViewVisible
	if s == nil {
		return
	}
	s.SetMapVisible(!f.AltViewVisible)
	s.SetAltViewVisible(f.AltViewVisible)
	s.SetCursorReadoutVisible(!f.AltViewVisible)
}
