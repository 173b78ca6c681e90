// Package metrics records search-client metrics in a Prometheus registry
// and optionally serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/zjrosen/geosift/internal/log"
)

const namespace = "geosift"

// Search outcomes used as the "outcome" label.
const (
	OutcomeIssued  = "issued"
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// Registry owns the collectors. The zero value is not usable; use New.
// A nil *Registry is a valid no-op recorder.
type Registry struct {
	reg *prometheus.Registry

	searches        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	results         prometheus.Histogram
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	modeTransitions *prometheus.CounterVec
}

// New creates a registry with the Go runtime collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by outcome",
		}, []string{"outcome"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Search service request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"endpoint", "status"}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Rows returned per applied search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits",
		}, []string{"cache"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses",
		}, []string{"cache"}),
		modeTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mode",
			Name:      "transitions_total",
			Help:      "Interaction mode transitions",
		}, []string{"to"}),
	}
}

// Search counts one search by outcome.
func (r *Registry) Search(outcome string) {
	if r == nil {
		return
	}
	r.searches.WithLabelValues(outcome).Inc()
}

// Request observes one HTTP round trip to the search service.
func (r *Registry) Request(endpoint, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(endpoint, status).Observe(d.Seconds())
}

// Results observes the row count of an applied search.
func (r *Registry) Results(n int) {
	if r == nil {
		return
	}
	r.results.Observe(float64(n))
}

// Transition counts a mode change.
func (r *Registry) Transition(to string) {
	if r == nil {
		return
	}
	r.modeTransitions.WithLabelValues(to).Inc()
}

func (r *Registry) CacheHit(name string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(name).Inc()
}

func (r *Registry) CacheMiss(name string) {
	if r == nil {
		return
	}
	r.cacheMisses.WithLabelValues(name).Inc()
}

// Gatherer exposes the underlying registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns a fasthttp handler serving the registry in the
// Prometheus text format.
func (r *Registry) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return r.serveListener(ctx, ln)
}

func (r *Registry) serveListener(ctx context.Context, ln net.Listener) error {
	metricsHandler := r.Handler()
	srv := &fasthttp.Server{
		Handler: func(c *fasthttp.RequestCtx) {
			if string(c.Path()) != "/metrics" {
				c.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			metricsHandler(c)
		},
		Name: namespace,
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.ErrorErr(log.CatHTTP, "metrics server shutdown", err)
		}
	}()

	log.Info(log.CatHTTP, "metrics endpoint listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
