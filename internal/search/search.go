// Package search issues searches against the search service from the
// Bubble Tea loop and drops responses that arrive out of order.
package search

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/metrics"
	"github.com/zjrosen/geosift/internal/searchapi"
)

// Searcher is the subset of searchapi.Client used here.
type Searcher interface {
	Columns(ctx context.Context) ([]string, error)
	SearchColumns(ctx context.Context) ([]string, error)
	Search(ctx context.Context, q searchapi.Query) (*searchapi.Response, error)
}

// Sequencer stamps requests with increasing numbers and accepts a response
// only if nothing newer has been applied.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next returns the stamp for a new request.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Accept reports whether the response stamped seq may be applied, and if
// so records it as the newest applied response.
func (s *Sequencer) Accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

// Pending reports whether a request newer than the last applied one is in flight.
func (s *Sequencer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued > s.applied
}

// ResultsMsg carries a search response back into the update loop.
type ResultsMsg struct {
	Seq      uint64
	Query    searchapi.Query
	Response *searchapi.Response
	Err      error
	Elapsed  time.Duration
}

// ColumnsMsg carries both column lists.
type ColumnsMsg struct {
	Columns       []string
	SearchColumns []string
	Err           error
}

// DebounceMsg fires after the filter debounce delay.
type DebounceMsg struct {
	Version int // only acted on if it matches the current filter version
}

// Debounce waits delay and then delivers DebounceMsg{version}.
func Debounce(version int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return DebounceMsg{Version: version}
	})
}

// ColumnsCmd fetches both column lists.
func ColumnsCmd(ctx context.Context, s Searcher) tea.Cmd {
	return func() tea.Msg {
		cols, err := s.Columns(ctx)
		if err != nil {
			return ColumnsMsg{Err: err}
		}
		searchCols, err := s.SearchColumns(ctx)
		if err != nil {
			return ColumnsMsg{Err: err}
		}
		return ColumnsMsg{Columns: cols, SearchColumns: searchCols}
	}
}

// Runner owns the sequencer for one search surface.
type Runner struct {
	ctx     context.Context
	client  Searcher
	seq     Sequencer
	metrics *metrics.Registry
	limit   int
}

// NewRunner creates a runner. limit 0 omits the limit parameter.
func NewRunner(ctx context.Context, client Searcher, m *metrics.Registry, limit int) *Runner {
	return &Runner{ctx: ctx, client: client, metrics: m, limit: limit}
}

// SetLimit changes the limit for subsequent searches.
func (r *Runner) SetLimit(limit int) {
	r.limit = limit
}

// Issue stamps a new search for params and returns the command running it.
func (r *Runner) Issue(params []searchapi.Param) tea.Cmd {
	q := searchapi.Query{Params: params, Limit: r.limit}
	seq := r.seq.Next()
	r.metrics.Search(metrics.OutcomeIssued)
	log.Debug(log.CatSearch, "search issued", "seq", seq, "query", q.Encode())

	ctx, client := r.ctx, r.client
	return func() tea.Msg {
		start := time.Now()
		resp, err := client.Search(ctx, q)
		return ResultsMsg{Seq: seq, Query: q, Response: resp, Err: err, Elapsed: time.Since(start)}
	}
}

// Accept decides whether msg should be rendered. Stale responses and
// failures return false; failures are logged and the grid keeps its rows.
func (r *Runner) Accept(msg ResultsMsg) bool {
	if !r.seq.Accept(msg.Seq) {
		r.metrics.Search(metrics.OutcomeStale)
		log.Debug(log.CatSearch, "stale search response dropped", "seq", msg.Seq)
		return false
	}
	if msg.Err != nil {
		r.metrics.Search(metrics.OutcomeFailed)
		log.ErrorErr(log.CatSearch, "search failed", msg.Err, "seq", msg.Seq)
		return false
	}
	if msg.Response == nil {
		return false
	}
	r.metrics.Search(metrics.OutcomeApplied)
	r.metrics.Results(len(msg.Response.Results))
	log.Debug(log.CatSearch, "search applied", "seq", msg.Seq, "results", len(msg.Response.Results), "elapsed", msg.Elapsed)
	return true
}

// Pending reports whether a newer search is still in flight.
func (r *Runner) Pending() bool {
	return r.seq.Pending()
}
