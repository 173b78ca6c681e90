package metrics

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func TestRegistry_CountsSearchOutcomes(t *testing.T) {
	r := New()

	r.Search(OutcomeIssued)
	r.Search(OutcomeIssued)
	r.Search(OutcomeStale)

	require.Equal(t, 2.0, testutil.ToFloat64(r.searches.WithLabelValues(OutcomeIssued)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.searches.WithLabelValues(OutcomeStale)))
	require.Equal(t, 0.0, testutil.ToFloat64(r.searches.WithLabelValues(OutcomeApplied)))
}

func TestRegistry_CacheObserver(t *testing.T) {
	r := New()

	r.CacheHit("columns")
	r.CacheMiss("columns")
	r.CacheMiss("columns")

	require.Equal(t, 1.0, testutil.ToFloat64(r.cacheHits.WithLabelValues("columns")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.cacheMisses.WithLabelValues("columns")))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	require.NotPanics(t, func() {
		r.Search(OutcomeIssued)
		r.Request("search", "200", time.Millisecond)
		r.Results(3)
		r.Transition("idle")
		r.CacheHit("columns")
		r.CacheMiss("columns")
	})
}

func TestRegistry_GatherIncludesRequestHistogram(t *testing.T) {
	r := New()
	r.Request("search", "200", 30*time.Millisecond)

	n, err := testutil.GatherAndCount(r.Gatherer(), "geosift_http_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestServe_ExposesMetrics(t *testing.T) {
	r := New()
	r.Search(OutcomeApplied)

	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.serveListener(ctx, ln) }()

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}

	status, body, err := client.Get(nil, "http://geosift/metrics")
	require.NoError(t, err)
	require.Equal(t, fasthttp.StatusOK, status)
	require.True(t, strings.Contains(string(body), `geosift_search_requests_total{outcome="applied"} 1`))

	status, _, err = client.Get(nil, "http://geosift/other")
	require.NoError(t, err)
	require.Equal(t, fasthttp.StatusNotFound, status)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
