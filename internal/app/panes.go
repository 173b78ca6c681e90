package app

import (
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/ui/coordform"
	"github.com/zjrosen/geosift/internal/ui/grid"
)

// panes tracks which containers are on screen. It is the controller's
// viewstate.Surface and the dispatcher's Blurrer.
type panes struct {
	form *coordform.Model
	grid *grid.Model

	overlayVisible bool
	mapVisible     bool
	tableVisible   bool
	readoutVisible bool
}

func (p *panes) SetOverlayPanelVisible(visible bool) {
	p.overlayVisible = visible
	if !visible {
		p.form.Blur()
	}
	log.Debug(log.CatUI, "coordinate panel", "visible", visible)
}

func (p *panes) ClearCoordinateFields() {
	p.form.Clear()
}

func (p *panes) SetMapVisible(visible bool) {
	p.mapVisible = visible
}

func (p *panes) SetAltViewVisible(visible bool) {
	p.tableVisible = visible
	if visible {
		p.grid.Invalidate()
	} else {
		p.grid.Blur()
	}
}

func (p *panes) SetCursorReadoutVisible(visible bool) {
	p.readoutVisible = visible
}

// Blur drops focus from every text input.
func (p *panes) Blur() {
	p.form.Blur()
	p.grid.Blur()
}
