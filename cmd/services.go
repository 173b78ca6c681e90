package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/geosift/internal/config"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/metrics"
	"github.com/zjrosen/geosift/internal/searchapi"
	"github.com/zjrosen/geosift/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// services holds the long-lived collaborators built from config.
type services struct {
	client  *searchapi.Client
	metrics *metrics.Registry // nil unless metrics.addr is set
	tracing *tracing.Provider
	cancel  context.CancelFunc
}

func newServices(ctx context.Context, c config.Config) (*services, error) {
	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	svc := &services{tracing: tp, cancel: cancel}

	if c.Metrics.Addr != "" {
		svc.metrics = metrics.New()
		go func() {
			if err := svc.metrics.Serve(ctx, c.Metrics.Addr); err != nil {
				log.ErrorErr(log.CatHTTP, "metrics server stopped", err, "addr", c.Metrics.Addr)
			}
		}()
		log.Info(log.CatHTTP, "serving metrics", "addr", c.Metrics.Addr)
	}

	svc.client, err = searchapi.New(c.Server.URL,
		searchapi.WithTimeout(c.Server.Timeout),
		searchapi.WithTracer(tp.Tracer()),
		searchapi.WithMetrics(svc.metrics),
		searchapi.WithColumnsTTL(c.Cache.ColumnsTTL),
	)
	if err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Close stops the metrics server and flushes pending spans.
func (s *services) Close() {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.tracing.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "tracing shutdown", err)
	}
}
