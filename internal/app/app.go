// Package app contains the root application model.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/geosift/internal/config"
	"github.com/zjrosen/geosift/internal/dispatch"
	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/geometry"
	"github.com/zjrosen/geosift/internal/keys"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/metrics"
	"github.com/zjrosen/geosift/internal/mode"
	"github.com/zjrosen/geosift/internal/pubsub"
	"github.com/zjrosen/geosift/internal/search"
	"github.com/zjrosen/geosift/internal/ui/alert"
	"github.com/zjrosen/geosift/internal/ui/coordform"
	"github.com/zjrosen/geosift/internal/ui/grid"
	"github.com/zjrosen/geosift/internal/ui/help"
	"github.com/zjrosen/geosift/internal/ui/mapview"
	"github.com/zjrosen/geosift/internal/ui/overlay"
	"github.com/zjrosen/geosift/internal/ui/statusbar"
	"github.com/zjrosen/geosift/internal/ui/toaster"
	"github.com/zjrosen/geosift/internal/watcher"
)

const (
	mapZoneID  = "geosift-map"
	gridZoneID = "geosift-grid"

	alertTitle = "Invalid input"
)

// columnsInvalidator is implemented by searchers that cache column lists.
type columnsInvalidator interface {
	InvalidateColumns(ctx context.Context)
}

// Options configures New.
type Options struct {
	Config config.Config
	// ConfigPath is watched for changes and receives the last map view on Close.
	ConfigPath string
	Searcher   search.Searcher
	// Metrics may be nil.
	Metrics *metrics.Registry
}

// Model is the root application state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg        config.Config
	configPath string

	searcher search.Searcher
	runner   *search.Runner
	metrics  *metrics.Registry

	overlay    *geometry.Overlay
	ctrl       *mode.Controller
	dispatcher *dispatch.Dispatcher
	panes      *panes

	mapView *mapview.Model
	grid    *grid.Model
	form    *coordform.Model

	status   statusbar.Model
	alert    alert.Model
	toaster  toaster.Model
	help     help.Model
	showHelp bool

	searchColumns []string
	filterVersion int

	width      int
	height     int
	bodyHeight int

	// Config watcher for auto-reload (pubsub-based)
	watcherHandle   *watcher.Watcher
	watcherBroker   *pubsub.Broker[watcher.Change]
	watcherListener *pubsub.ContinuousListener[watcher.Change]
}

// New wires the overlay, mode controller, dispatcher and every pane.
func New(opts Options) Model {
	cfg := opts.Config
	ctx, cancel := context.WithCancel(context.Background())

	keys.ApplyConfig(cfg.Keys.Paste, cfg.Keys.Yank)

	ov := geometry.New(nil, cfg.Map.PlaceZoom)
	mv := mapview.New(ov, cfg.Map.Center(), cfg.Map.Zoom, mapZoneID)
	ov.SetViewport(mv)

	form := coordform.New()
	g := grid.New(gridZoneID)
	p := &panes{form: form, grid: g, mapVisible: true, readoutVisible: true}

	ctrl := mode.New(ov, mode.Capabilities{
		Rectangle: mv.RectangleTool(),
		Circle:    mv.CircleTool(),
		Editor:    mv,
		Form:      form,
		Surface:   p,
	}, cfg.Map.CircleRadiusM)

	m := Model{
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		configPath: opts.ConfigPath,
		searcher:   opts.Searcher,
		runner:     search.NewRunner(ctx, opts.Searcher, opts.Metrics, cfg.Search.Limit),
		metrics:    opts.Metrics,
		overlay:    ov,
		ctrl:       ctrl,
		dispatcher: dispatch.New(ctrl, p),
		panes:      p,
		mapView:    mv,
		grid:       g,
		form:       form,
		status:     statusbar.New(),
		alert:      alert.New(),
		toaster:    toaster.New(),
		help:       help.New(keys.Map, cfg.UI.MarkdownStyle),
	}

	if cfg.AutoReload && opts.ConfigPath != "" {
		m.startWatcher(opts.ConfigPath)
	}
	m.refreshStatus()
	return m
}

// startWatcher is best-effort: the app works without auto-reload.
func (m *Model) startWatcher(path string) {
	broker := pubsub.NewBroker[watcher.Change]()
	w, err := watcher.New(watcher.DefaultConfig(path), broker)
	if err != nil {
		log.Warn(log.CatWatcher, "config watcher unavailable", "error", err)
		broker.Close()
		return
	}
	if err := w.Start(); err != nil {
		log.Warn(log.CatWatcher, "config watcher failed to start", "path", path, "error", err)
		_ = w.Stop()
		broker.Close()
		return
	}
	m.watcherHandle = w
	m.watcherBroker = broker
	m.watcherListener = pubsub.NewContinuousListener(m.ctx, broker)
}

// Init fetches the column lists and starts the config listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(search.ColumnsCmd(m.ctx, m.searcher), m.listen())
}

func (m Model) listen() tea.Cmd {
	if m.watcherListener == nil {
		return nil
	}
	return m.watcherListener.Listen()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		cmd = m.handleMouse(msg)

	case search.ColumnsMsg:
		if msg.Err != nil {
			log.ErrorErr(log.CatSearch, "loading columns failed", msg.Err)
			return m, nil
		}
		m.searchColumns = msg.SearchColumns
		m.grid.SetColumns(msg.Columns, msg.SearchColumns)
		m.grid.Render()
		log.Info(log.CatSearch, "columns loaded", "columns", len(msg.Columns), "searchable", len(msg.SearchColumns))
		cmd = m.issueSearch()

	case search.ResultsMsg:
		m.applyResults(msg)

	case grid.FilterChangedMsg:
		m.filterVersion++
		return m, search.Debounce(m.filterVersion, m.cfg.Search.Debounce)

	case search.DebounceMsg:
		if msg.Version != m.filterVersion {
			return m, nil
		}
		return m, m.issueSearch()

	case grid.RowSelectedMsg:
		m.locateRow(msg.Index)

	case coordform.PasteMsg:
		if msg.Err != nil {
			log.ErrorErr(log.CatUI, "clipboard read failed", msg.Err)
			m.toaster, cmd = m.toaster.Show("Clipboard unavailable", toaster.StyleWarn, toaster.DefaultDuration)
			return m, cmd
		}
		cmd = m.apply(m.ctrl.PasteCoordinates(msg.Text))

	case coordform.YankedMsg:
		if msg.Err != nil {
			log.ErrorErr(log.CatUI, "clipboard write failed", msg.Err)
			m.toaster, cmd = m.toaster.Show("Clipboard unavailable", toaster.StyleWarn, toaster.DefaultDuration)
			return m, cmd
		}
		m.toaster, cmd = m.toaster.Show("Copied "+msg.Text, toaster.StyleSuccess, toaster.DefaultDuration)
		return m, cmd

	case mapview.ToggleViewMsg:
		cmd = m.apply(m.ctrl.ToggleView())

	case mapview.TickMsg:
		return m, m.mapView.Update(msg)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Dismiss(msg)
		return m, nil

	case alert.DismissedMsg:
		if m.panes.overlayVisible && m.form.Focused() < 0 {
			return m, m.form.Focus(coordform.FieldLat)
		}
		return m, nil

	case pubsub.Event[watcher.Change]:
		cmd = m.handleConfigEvent(msg)
		return m, tea.Batch(cmd, m.listen())
	}

	m.refreshStatus()
	return m, tea.Batch(cmd, m.mapView.Animate())
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	body := height
	if m.cfg.UI.ShowStatusBar {
		body--
	}
	body = max(body, 1)
	m.bodyHeight = body

	m.mapView.SetSize(width, body)
	m.grid.SetSize(width, body)
	m.status = m.status.SetWidth(width)
	m.alert = m.alert.SetSize(width, height)
	m.help = m.help.SetSize(width, height)
	m.grid.Render()
}

// focus reports which text input holds keyboard focus.
func (m Model) focus() dispatch.Focus {
	switch {
	case m.form.Focused() >= 0:
		return dispatch.FocusCoordinate
	case m.grid.Focused():
		return dispatch.FocusText
	default:
		return dispatch.FocusNone
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	km := keys.Map
	focus := m.focus()

	// The alert captures every key until dismissed.
	if m.alert.Visible() {
		var cmd tea.Cmd
		m.alert, cmd = m.alert.Update(msg)
		return cmd
	}

	if m.showHelp {
		if key.Matches(msg, km.Help) || key.Matches(msg, km.Escape) || key.Matches(msg, km.Quit) {
			m.showHelp = false
		}
		return nil
	}

	if msg.Type == tea.KeyCtrlC || (focus == dispatch.FocusNone && key.Matches(msg, km.Quit)) {
		return tea.Quit
	}

	if m.panes.overlayVisible {
		switch {
		case key.Matches(msg, km.Paste):
			return coordform.ReadClipboard()
		case key.Matches(msg, km.NextFocus), key.Matches(msg, km.PrevFocus):
			return m.form.NextField()
		}
	}

	if m.panes.tableVisible {
		switch {
		case key.Matches(msg, km.NextFocus):
			return m.grid.NextFilter(1)
		case key.Matches(msg, km.PrevFocus):
			return m.grid.NextFilter(-1)
		case focus == dispatch.FocusNone && key.Matches(msg, km.Filter):
			return m.grid.FocusFilter(0)
		}
	}

	if focus == dispatch.FocusNone {
		switch {
		case key.Matches(msg, km.Help):
			m.showHelp = true
			return nil
		case m.panes.mapVisible && key.Matches(msg, km.Yank):
			return coordform.WriteClipboard(m.mapView.Cursor().String())
		}
	}

	res := m.dispatcher.Handle(msg, focus)
	switch {
	case res.Decision.Action == dispatch.ActionForward:
		if focus == dispatch.FocusCoordinate {
			return m.form.Update(msg)
		}
		return m.grid.Update(msg)
	case res.Handled():
		return m.apply(res.Outcome)
	}

	// Unclaimed keys navigate the visible pane.
	if m.panes.mapVisible {
		return m.mapView.Update(msg)
	}
	switch {
	case key.Matches(msg, km.Up):
		m.grid.MoveCursor(-1)
	case key.Matches(msg, km.Down):
		m.grid.MoveCursor(1)
	case key.Matches(msg, km.Left):
		m.grid.ScrollColumns(-1)
	case key.Matches(msg, km.Right):
		m.grid.ScrollColumns(1)
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.alert.Visible() || m.showHelp {
		return nil
	}
	if m.panes.mapVisible {
		return m.mapView.Update(msg)
	}
	return m.grid.Update(msg)
}

// apply turns a controller outcome into UI effects. At most one search is
// issued per outcome.
func (m *Model) apply(out mode.Outcome) tea.Cmd {
	var cmds []tea.Cmd

	if out.Transitioned() {
		m.metrics.Transition(out.To.String())
	}
	if out.Alert != "" {
		m.alert = m.alert.Show(alertTitle, out.Alert)
	}
	if out.Rejected != "" {
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(out.Rejected, toaster.StyleWarn, toaster.DefaultDuration)
		cmds = append(cmds, cmd)
	}
	if m.panes.overlayVisible && m.form.Focused() < 0 && out.Alert == "" {
		cmds = append(cmds, m.form.Focus(coordform.FieldLat))
	}
	if m.panes.tableVisible {
		m.grid.Render()
	}
	if out.Search {
		cmds = append(cmds, m.issueSearch())
	}
	return tea.Batch(cmds...)
}

func (m *Model) issueSearch() tea.Cmd {
	return m.runner.Issue(m.grid.Params(m.searchColumns))
}

// applyResults renders an accepted response. Stale and failed responses
// leave the grid and markers untouched.
func (m *Model) applyResults(msg search.ResultsMsg) {
	if !m.runner.Accept(msg) {
		return
	}
	rows := msg.Response.Results
	m.grid.SetData(rows)
	m.grid.Invalidate()
	m.grid.Render()
	m.overlay.ReplaceMarkers(rows)
	m.status = m.status.SetMetadata(len(rows), msg.Response.TimeTakenMs)
}

// locateRow recenters the map on a selected row that carries coordinates.
func (m *Model) locateRow(i int) {
	rows := m.grid.Rows()
	if i < 0 || i >= len(rows) {
		return
	}
	p, ok := geo.FromAny(rows[i]["lat"], rows[i]["lon"])
	if !ok {
		return
	}
	m.mapView.SetView(p, m.mapView.Zoom())
}

// handleConfigEvent reloads the settings that can change at runtime.
func (m *Model) handleConfigEvent(ev pubsub.Event[watcher.Change]) tea.Cmd {
	switch ev.Type {
	case pubsub.ErrorEvent:
		log.Warn(log.CatWatcher, "config watcher error", "error", ev.Payload.Err)
		return nil
	case pubsub.RemovedEvent:
		log.Warn(log.CatWatcher, "config file removed", "path", ev.Payload.Path)
		return nil
	}

	cfg, err := config.Load(ev.Payload.Path)
	if err != nil {
		log.ErrorErr(log.CatConfig, "config reload failed", err)
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show("Config not reloaded: invalid file", toaster.StyleWarn, toaster.DefaultDuration)
		return cmd
	}

	m.cfg.Search = cfg.Search
	m.cfg.Keys = cfg.Keys
	m.cfg.UI.MarkdownStyle = cfg.UI.MarkdownStyle
	m.runner.SetLimit(cfg.Search.Limit)

	keys.Reload(cfg.Keys.Paste, cfg.Keys.Yank)
	m.help = help.New(keys.Map, cfg.UI.MarkdownStyle).SetSize(m.width, m.height)

	if inv, ok := m.searcher.(columnsInvalidator); ok {
		inv.InvalidateColumns(m.ctx)
	}
	log.Info(log.CatConfig, "config reloaded", "path", ev.Payload.Path, "limit", cfg.Search.Limit)

	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show("Config reloaded", toaster.StyleInfo, toaster.DefaultDuration)
	return tea.Batch(cmd, search.ColumnsCmd(m.ctx, m.searcher))
}

func (m *Model) refreshStatus() {
	n, ok := m.overlay.CountInRegion()
	m.status = m.status.
		SetMode(m.ctrl.Mode().String()).
		SetRegion(n, ok).
		SetCursor(m.mapView.Cursor()).
		SetCursorVisible(m.panes.readoutVisible)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var view string
	if m.panes.tableVisible {
		view = m.grid.View()
	} else {
		view = m.mapView.View()
	}

	if m.panes.overlayVisible {
		view = overlay.Place(overlay.Config{
			Width:    m.width,
			Height:   m.bodyHeight,
			Position: overlay.At,
			X:        1,
			Y:        1,
		}, m.form.View(), view)
	}

	if m.cfg.UI.ShowStatusBar {
		view += "\n" + m.status.View()
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.showHelp {
		view = m.help.Overlay(view)
	}
	view = m.alert.Overlay(view)

	return zone.Scan(view)
}

// Close stops the config watcher and persists the last map view.
func (m *Model) Close() error {
	m.cancel()

	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return fmt.Errorf("stopping config watcher: %w", err)
		}
		m.watcherBroker.Close()
	}

	if m.configPath != "" {
		if err := config.SaveView(m.configPath, m.mapView.Center(), m.mapView.Zoom()); err != nil {
			return fmt.Errorf("saving map view: %w", err)
		}
		log.Debug(log.CatConfig, "map view saved", "center", m.mapView.Center(), "zoom", m.mapView.Zoom())
	}
	return nil
}

// Snapshot is the observable state used by tests and the debug log.
type Snapshot struct {
	Mode           mode.Mode
	OverlayVisible bool
	TableVisible   bool
	Shapes         int
	Results        int
	Alert          string
}

// Snapshot returns the current observable state.
func (m Model) Snapshot() Snapshot {
	st := m.ctrl.State()
	msg := ""
	if m.alert.Visible() {
		msg = m.alert.Message()
	}
	return Snapshot{
		Mode:           st.Mode(),
		OverlayVisible: st.View.OverlayVisible,
		TableVisible:   st.View.AltViewVisible,
		Shapes:         len(m.overlay.Shapes()),
		Results:        len(m.grid.Rows()),
		Alert:          msg,
	}
}
