package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrEndpoint   = "search.endpoint"
	AttrSequence   = "search.sequence"
	AttrParamCount = "search.param_count"
	AttrLimit      = "search.limit"
	AttrResults    = "search.results"
	AttrServerMs   = "search.server_time_ms"
	AttrStatusCode = "http.status_code"
)

// Event names.
const (
	EventCacheHit     = "cache.hit"
	EventStaleDropped = "search.stale_dropped"
)

// SpanPrefixHTTP prefixes every search service request span.
const SpanPrefixHTTP = "searchapi."

// StartRequest starts a client span for one call to endpoint.
func StartRequest(ctx context.Context, tracer trace.Tracer, endpoint string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(AttrEndpoint, endpoint))
	return tracer.Start(ctx, SpanPrefixHTTP+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
