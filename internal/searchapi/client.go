// Package searchapi is the HTTP client for the local search service:
//
//	GET /get_columns         -> {"columns": [...]}
//	GET /get_search_columns  -> {"columns": [...]}
//	GET /search?<col>=<v>&...[&limit=n] -> {"results": [...], "time_taken_ms": n}
//
// Column lists are cached; every request is traced and measured.
package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/geosift/internal/cachemanager"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/metrics"
	"github.com/zjrosen/geosift/internal/tracing"
)

const (
	EndpointColumns       = "get_columns"
	EndpointSearchColumns = "get_search_columns"
	EndpointSearch        = "search"

	DefaultTimeout = 10 * time.Second
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("unexpected status")

// Param is one column filter. Order is preserved on the wire.
type Param struct {
	Column string
	Value  string
}

// Query is a search request. Limit 0 omits the limit parameter.
type Query struct {
	Params []Param
	Limit  int
}

// Encode renders the query string. Empty values are dropped.
func (q Query) Encode() string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	for _, p := range q.Params {
		if p.Value == "" {
			continue
		}
		args.Add(p.Column, p.Value)
	}
	if q.Limit > 0 {
		args.Add("limit", strconv.Itoa(q.Limit))
	}
	return args.String()
}

// Terms returns the non-empty filter values, used for highlighting.
func (q Query) Terms() []string {
	var terms []string
	for _, p := range q.Params {
		if p.Value != "" {
			terms = append(terms, p.Value)
		}
	}
	return terms
}

// Response is the /search payload.
type Response struct {
	Results     []map[string]any `json:"results"`
	TimeTakenMs float64          `json:"time_taken_ms"`
}

type columnsResponse struct {
	Columns []string `json:"columns"`
}

// Client talks to one search service.
type Client struct {
	base    string
	http    *fasthttp.Client
	timeout time.Duration
	tracer  trace.Tracer
	metrics *metrics.Registry

	columnsTTL time.Duration
	columns    *cachemanager.ReadThroughCache[string, []string]
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds requests whose context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDial replaces the dialer. Tests use it with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// WithColumnsTTL enables caching of column lists. Zero disables the cache.
func WithColumnsTTL(ttl time.Duration) Option {
	return func(c *Client) { c.columnsTTL = ttl }
}

// New creates a client for baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)
	if err := uri.Parse(nil, []byte(base)); err != nil || len(uri.Host()) == 0 {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	c := &Client{
		base:    base,
		http:    &fasthttp.Client{Name: "geosift"},
		timeout: DefaultTimeout,
		tracer:  tracing.Disabled().Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cache := cachemanager.NewInMemoryCacheManager[string, []string]("columns", c.columnsTTL, cachemanager.DefaultCleanupInterval).
		WithObserver(c.metrics)
	c.columns = cachemanager.NewReadThroughCache[string, []string](cache, c.fetchColumns, c.columnsTTL, c.columnsTTL <= 0)
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Columns lists every column of the result rows.
func (c *Client) Columns(ctx context.Context) ([]string, error) {
	return c.columns.Get(ctx, EndpointColumns)
}

// SearchColumns lists the columns that accept filters.
func (c *Client) SearchColumns(ctx context.Context) ([]string, error) {
	return c.columns.Get(ctx, EndpointSearchColumns)
}

// InvalidateColumns forgets cached column lists.
func (c *Client) InvalidateColumns(ctx context.Context) {
	c.columns.Invalidate(ctx, EndpointColumns)
	c.columns.Invalidate(ctx, EndpointSearchColumns)
}

func (c *Client) fetchColumns(ctx context.Context, endpoint string) ([]string, error) {
	var out columnsResponse
	if err := c.get(ctx, endpoint, "", &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}

// Search runs q against /search.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	var out Response
	err := c.get(ctx, EndpointSearch, q.Encode(), &out,
		attribute.Int(tracing.AttrParamCount, len(q.Terms())),
		attribute.Int(tracing.AttrLimit, q.Limit),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint, query string, into any, attrs ...attribute.KeyValue) (err error) {
	ctx, span := tracing.StartRequest(ctx, c.tracer, endpoint, attrs...)
	defer func() { tracing.End(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	url := c.base + "/" + endpoint
	if query != "" {
		url += "?" + query
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.timeout)
	}
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.Request(endpoint, "error", elapsed)
		log.Warn(log.CatHTTP, "request failed", "url", url, "error", err)
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int(tracing.AttrStatusCode, status))
	c.metrics.Request(endpoint, strconv.Itoa(status), elapsed)
	log.Debug(log.CatHTTP, "request done", "url", url, "status", status, "elapsed", elapsed)

	if status != fasthttp.StatusOK {
		return fmt.Errorf("GET %s: %w %d", endpoint, ErrStatus, status)
	}

	if err := json.Unmarshal(resp.Body(), into); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
