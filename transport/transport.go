// Package transport performs the raw HTTP exchange for the client.
// It knows nothing about endpoint semantics: it receives a fully built
// wire request, executes it, and hands back the status, headers, and an
// unread body stream. Retry, backoff, and host selection policies (if
// any) belong here or below, never in the dispatch layer above.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/isabella232/elasticsearch/internal/logger"
	"github.com/isabella232/elasticsearch/internal/version"
)

// Request is one wire-level call: method, path, query parameters, body
// payload, and per-call headers already merged over client defaults.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
	Body   []byte

	// Endpoint is the logical endpoint name ("search", "doc.get", ...)
	// used as a low-cardinality metrics label.
	Endpoint string
}

// Response is the raw wire-level reply. Body is consumable exactly once
// and may be nil (HEAD requests, 204 responses).
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsError reports whether the response carries a failure status.
func (r *Response) IsError() bool {
	return r.StatusCode < 200 || r.StatusCode > 299
}

// ContentType returns the declared content type, if any.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Warnings returns the server deprecation warnings attached to the
// response, one per Warning header.
func (r *Response) Warnings() []string {
	return r.Header.Values("Warning")
}

// Observer receives one observation per completed exchange. status is 0
// for connection-level failures.
type Observer interface {
	ObserveRequest(method, endpoint string, status int, latency time.Duration)
}

// Performer executes wire requests. Implementations must be safe for
// concurrent use.
type Performer interface {
	// Perform executes the request and blocks until the exchange
	// completes or ctx is done.
	Perform(ctx context.Context, req *Request) (*Response, error)
	// PerformAsync executes the request and invokes cb exactly once,
	// on whatever goroutine the transport completes on.
	PerformAsync(ctx context.Context, req *Request, cb func(*Response, error))
}

// Config holds connection parameters for the HTTP transport.
type Config struct {
	// Address is the base URL of the service, e.g. "http://localhost:9200".
	Address string
	// Header is merged into every request (lowest precedence).
	Header http.Header
	// Timeout bounds one exchange end to end. Zero means no timeout;
	// cancellation then relies on the caller's context.
	Timeout time.Duration
	// HTTPClient overrides the underlying *http.Client (Timeout is
	// ignored when set).
	HTTPClient *http.Client
	// Logger receives one canonical line per request. Nil disables logging.
	Logger *zap.Logger
	// Observer receives per-request observations. Nil disables them.
	Observer Observer
}

// Client is the default HTTP transport.
type Client struct {
	base     *url.URL
	header   http.Header
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// New creates an HTTP transport for the configured address.
func New(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("transport: address is required")
	}
	base, err := url.Parse(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("transport: parse address %q: %w", cfg.Address, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported scheme %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:     base,
		header:   cfg.Header,
		http:     httpClient,
		logger:   logger,
		observer: cfg.Observer,
	}, nil
}

// Perform executes one HTTP exchange. Any status code is a valid
// outcome; only connection-level failures return an error. The response
// body is fully read and the connection released before returning, so
// callers own plain bytes and the read-once invariant is enforced here.
func (c *Client) Perform(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(req, 0, time.Since(start))
		return nil, fmt.Errorf("transport: perform %s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	var body []byte
	if req.Method != http.MethodHead {
		body, err = io.ReadAll(httpResp.Body)
		if err != nil {
			c.observe(req, httpResp.StatusCode, time.Since(start))
			return nil, fmt.Errorf("transport: read response body: %w", err)
		}
	}

	latency := time.Since(start)
	c.observe(req, httpResp.StatusCode, latency)
	// A request-scoped logger in ctx (request id, tenant) wins over the
	// client logger for the canonical line.
	logpkg.FromContext(ctx, c.logger).Debug("http_request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", latency),
		zap.Int("response_bytes", len(body)),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// PerformAsync runs the exchange on a transport-owned goroutine and
// invokes cb exactly once with the outcome.
func (c *Client) PerformAsync(ctx context.Context, req *Request, cb func(*Response, error)) {
	go func() {
		cb(c.Perform(ctx, req))
	}()
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	// req.Path arrives already percent-escaped. Keep the escaped form in
	// RawPath and the decoded form in Path so URL.String() sends the
	// segments through exactly once (ids with reserved characters would
	// otherwise be escaped twice).
	u := *c.base
	escaped := strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.TrimLeft(req.Path, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid path %q: %w", req.Path, err)
	}
	u.Path = unescaped
	u.RawPath = escaped
	if len(req.Params) > 0 {
		u.RawQuery = req.Params.Encode()
	}

	var bodyReader *bytes.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	var httpReq *http.Request
	if bodyReader != nil {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, u.String(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: create request: %w", err)
	}

	// Client defaults first, then per-request headers override per key,
	// keeping every value of a multi-valued key.
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", version.UserAgent())
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

func (c *Client) observe(req *Request, status int, latency time.Duration) {
	if c.observer == nil {
		return
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = "unknown"
	}
	c.observer.ObserveRequest(req.Method, endpoint, status, latency)
}
