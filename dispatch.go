package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/isabella232/elasticsearch/internal/codec"
	"github.com/isabella232/elasticsearch/transport"
)

// WarningsMode controls how server deprecation warnings are handled.
type WarningsMode int

const (
	// WarningsDefault defers to the client-level mode.
	WarningsDefault WarningsMode = iota
	// WarningsPermissive logs warnings and continues.
	WarningsPermissive
	// WarningsStrict fails the call when warnings are present.
	WarningsStrict
)

// CallOptions customizes a single call. A nil *CallOptions is valid and
// means "client defaults".
type CallOptions struct {
	// Header entries are merged over the client's default headers.
	Header http.Header
	// Warnings overrides the client-level warnings mode for this call.
	Warnings WarningsMode
}

// apiRequest is implemented by every typed request in this package:
// an immutable value that can check itself before any network activity
// and convert itself into a wire request.
type apiRequest interface {
	// Validate returns a *ValidationError listing every violation, or nil.
	Validate() error
	toWire() (*transport.Request, error)
	callOptions() *CallOptions
}

// requestOptions carries the per-call options; request structs embed it.
type requestOptions struct {
	// Options customizes headers and warning handling for this call.
	Options *CallOptions
}

func (r requestOptions) callOptions() *CallOptions { return r.Options }

// bodyDecoder hands a parse function the normalized response body plus
// registry access for polymorphic subtrees.
type bodyDecoder struct {
	data     json.RawMessage
	registry *variantRegistry
}

// decode parses the body into v.
func (b *bodyDecoder) decode(v any) error {
	return json.Unmarshal(b.data, v)
}

// aggregations decodes a typed-keys aggregation object via the registry.
func (b *bodyDecoder) aggregations(raw RawAggregations) (map[string]any, error) {
	return b.registry.decodeTyped(CategoryAggregation, raw)
}

// suggestions decodes a typed-keys suggest object via the registry.
func (b *bodyDecoder) suggestions(raw map[string]json.RawMessage) (map[string]any, error) {
	return b.registry.decodeTyped(CategorySuggestion, raw)
}

type parseFunc[T any] func(body *bodyDecoder) (T, error)

// perform is the synchronous dispatch path: validate, convert, execute,
// then decode (or translate the failure).
//
// ignore lists the failure statuses eligible for success-path decoding
// (a 404 from a get is a structured "not found", not an error). The
// transport is never invoked when validation fails, and no retries
// happen here: retry policy belongs to the transport.
func perform[T any](ctx context.Context, c *Client, req apiRequest, parse parseFunc[T], ignore ...int) (T, error) {
	var zero T

	wire, err := convertRequest(c, req)
	if err != nil {
		return zero, err
	}
	resp, err := c.transport.Perform(ctx, wire)
	if err != nil {
		return zero, err
	}
	return handleResponse(c, req, resp, parse, ignore)
}

// performAsync is the asynchronous dispatch path. cb is invoked exactly
// once, with a decoded value or a terminal error, on whatever goroutine
// the transport completes on. Pre-network failures
// (validation, conversion) are delivered through the same callback.
// The dispatcher itself starts no goroutines; cancellation rides on ctx.
func performAsync[T any](ctx context.Context, c *Client, req apiRequest, parse parseFunc[T], cb func(T, error), ignore ...int) {
	var zero T

	wire, err := convertRequest(c, req)
	if err != nil {
		cb(zero, err)
		return
	}
	c.transport.PerformAsync(ctx, wire, func(resp *transport.Response, err error) {
		if err != nil {
			cb(zero, err)
			return
		}
		cb(handleResponse(c, req, resp, parse, ignore))
	})
}

// performStatus dispatches a request whose outcome is its status code
// (HEAD endpoints: ping, exists). Statuses in ignore are returned to the
// caller instead of being translated into a ServerError.
func performStatus(ctx context.Context, c *Client, req apiRequest, ignore ...int) (int, error) {
	wire, err := convertRequest(c, req)
	if err != nil {
		return 0, err
	}
	resp, err := c.transport.Perform(ctx, wire)
	if err != nil {
		return 0, err
	}
	if resp.IsError() && !slices.Contains(ignore, resp.StatusCode) {
		return resp.StatusCode, c.translateError(resp, nil)
	}
	if err := c.checkWarnings(req, resp); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

func convertRequest(c *Client, req apiRequest) (*transport.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wire, err := req.toWire()
	if err != nil {
		return nil, err
	}
	if opts := req.callOptions(); opts != nil && len(opts.Header) > 0 {
		if wire.Header == nil {
			wire.Header = http.Header{}
		}
		for k, vs := range opts.Header {
			// Override per key, keeping every value of a multi-valued key.
			wire.Header.Del(k)
			for _, v := range vs {
				wire.Header.Add(k, v)
			}
		}
	}
	return wire, nil
}

// handleResponse decides the terminal state of one call.
func handleResponse[T any](c *Client, req apiRequest, resp *transport.Response, parse parseFunc[T], ignore []int) (T, error) {
	var zero T

	if !resp.IsError() {
		if err := c.checkWarnings(req, resp); err != nil {
			return zero, err
		}
		return decodeSuccess(c, resp, parse)
	}

	if slices.Contains(ignore, resp.StatusCode) {
		// The status is sometimes a valid structured payload (a get's
		// "not found" body) and sometimes a genuine error. Try the
		// success decode first; if the body does not satisfy the
		// success schema, translate as an error and keep the failed
		// attempt as suppressed context.
		v, decodeErr := decodeSuccess(c, resp, parse)
		if decodeErr == nil {
			return v, nil
		}
		return zero, c.translateError(resp, decodeErr)
	}

	return zero, c.translateError(resp, nil)
}

// decodeSuccess negotiates a codec from the response headers, normalizes
// the body, and applies parse. All failures come back as *DecodeError:
// a malformed expected-success body is a protocol mismatch the caller
// must see, never something to swallow.
func decodeSuccess[T any](c *Client, resp *transport.Response, parse parseFunc[T]) (T, error) {
	var zero T

	cdc, err := codec.Negotiate(resp.ContentType())
	if err != nil {
		return zero, &DecodeError{Reason: "content negotiation failed", Err: err}
	}
	if len(resp.Body) == 0 {
		return zero, &DecodeError{Reason: "response body expected but not returned"}
	}
	data, err := cdc.Normalize(resp.Body)
	if err != nil {
		return zero, &DecodeError{Reason: "malformed response body", Err: err}
	}

	v, err := parse(&bodyDecoder{data: data, registry: c.registry})
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return zero, de
		}
		return zero, &DecodeError{Reason: "parse response body", Err: err}
	}
	return v, nil
}

// translateError converts a failed wire response into a *ServerError.
// If a body is present it is best-effort parsed as the fixed server
// error envelope; envelope detail becomes the error's message and the
// parse attempt (or the caller-supplied suppressed error) is retained as
// secondary context. This function never fails: it always produces a
// usable *ServerError.
func (c *Client) translateError(resp *transport.Response, suppressed error) *ServerError {
	se := &ServerError{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Suppressed: suppressed,
	}

	if len(resp.Body) == 0 {
		return se
	}

	envType, envReason, err := parseErrorEnvelope(resp)
	if err != nil {
		se.Suppressed = joinSuppressed(suppressed, err)
		return se
	}
	se.Type = envType
	se.Reason = envReason
	return se
}

// errorCause is the nested detail object of a server error envelope.
type errorCause struct {
	Type     string      `json:"type"`
	Reason   string      `json:"reason"`
	CausedBy *errorCause `json:"caused_by"`
}

// parseErrorEnvelope decodes the fixed error envelope. The "error" field
// is either a bare message string or a structured cause object; both are
// accepted. This is a fixed decode path: error envelopes never go
// through the variant registry.
func parseErrorEnvelope(resp *transport.Response) (string, string, error) {
	cdc, err := codec.Negotiate(resp.ContentType())
	if err != nil {
		return "", "", err
	}
	data, err := cdc.Normalize(resp.Body)
	if err != nil {
		return "", "", err
	}

	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Status int             `json:"status"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", "", err
	}
	if len(envelope.Error) == 0 {
		return "", "", fmt.Errorf("body carries no error envelope")
	}

	var message string
	if err := json.Unmarshal(envelope.Error, &message); err == nil {
		return "", message, nil
	}
	var cause errorCause
	if err := json.Unmarshal(envelope.Error, &cause); err != nil {
		return "", "", err
	}
	if cause.Type == "" && cause.Reason == "" {
		return "", "", fmt.Errorf("error envelope carries no detail")
	}
	return cause.Type, cause.Reason, nil
}

func joinSuppressed(a, b error) error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return errors.Join(a, b)
}

// checkWarnings enforces the effective warnings mode for one call.
func (c *Client) checkWarnings(req apiRequest, resp *transport.Response) error {
	warnings := resp.Warnings()
	if len(warnings) == 0 {
		return nil
	}

	mode := c.warnings
	if opts := req.callOptions(); opts != nil && opts.Warnings != WarningsDefault {
		mode = opts.Warnings
	}
	if mode == WarningsStrict {
		return &WarningsError{Warnings: warnings}
	}
	c.logger.Warn("server returned deprecation warnings",
		zap.Strings("warnings", warnings),
	)
	return nil
}
