package elasticsearch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/isabella232/elasticsearch/transport"
)

func TestGet_ValidationShortCircuit(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			t.Fatal("transport must not be invoked for an invalid request")
			return nil, nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(verr.Errors) != 1 {
		t.Errorf("violations = %v, want exactly the missing id", verr.Errors)
	}
	if mock.calls != 0 {
		t.Errorf("transport calls = %d, want 0", mock.calls)
	}
}

func TestGet_IgnoredStatusDecodesNotFound(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusNotFound,
				`{"_index":"articles","_id":"42","found":false}`), nil
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Found {
		t.Error("Found = true, want false")
	}
	if resp.ID != "42" {
		t.Errorf("ID = %q, want 42", resp.ID)
	}
}

func TestGet_IgnoredStatusFallsBackToServerError(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusNotFound, `{"error":"cluster unavailable"}`), nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", se.StatusCode)
	}
	if se.Reason != "cluster unavailable" {
		t.Errorf("reason = %q, want server-reported message", se.Reason)
	}
	if se.Suppressed == nil {
		t.Error("expected the failed fallback decode to be suppressed, got nil")
	}
}

func TestGet_NonIgnoredStatusIsServerError(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusInternalServerError,
				`{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"},"status":500}`), nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.Type != "search_phase_execution_exception" {
		t.Errorf("type = %q, want envelope type", se.Type)
	}
	if se.Reason != "all shards failed" {
		t.Errorf("reason = %q, want envelope reason", se.Reason)
	}
}

func TestTranslateError_EmptyBodyUsesStatusText(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return &transport.Response{
				StatusCode: http.StatusBadGateway,
				Header:     http.Header{},
			}, nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.Reason != http.StatusText(http.StatusBadGateway) {
		t.Errorf("reason = %q, want status text fallback", se.Reason)
	}
	if se.Suppressed != nil {
		t.Errorf("suppressed = %v, want nil for an empty body", se.Suppressed)
	}
}

func TestTranslateError_GarbageBodyKeepsParseFailure(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusServiceUnavailable, `<html>bad gateway</html>`), nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.Reason != http.StatusText(http.StatusServiceUnavailable) {
		t.Errorf("reason = %q, want status text fallback", se.Reason)
	}
	if se.Suppressed == nil {
		t.Error("expected the envelope parse failure to be suppressed, got nil")
	}
}

func TestDecodeSuccess_MissingContentType(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return &transport.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{},
				Body:       []byte(`{"found":true}`),
			}, nil
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestDecodeSuccess_YAMLBody(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return &transport.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/yaml"}},
				Body:       []byte("_index: articles\n_id: \"42\"\nfound: true\n"),
			}, nil
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Found || resp.ID != "42" {
		t.Errorf("resp = %+v, want found document 42", resp)
	}
}

func TestWarnings_StrictFailsTheCall(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			resp := jsonResponse(http.StatusOK, `{"found":true,"_id":"42"}`)
			resp.Header.Add("Warning", `299 - "field [old] is deprecated"`)
			return resp, nil
		},
	}
	client := newTestClient(t, mock, WithWarnings(WarningsStrict))

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})

	var we *WarningsError
	if !errors.As(err, &we) {
		t.Fatalf("error = %v, want *WarningsError", err)
	}
	if len(we.Warnings) != 1 {
		t.Errorf("warnings = %v, want one entry", we.Warnings)
	}
}

func TestWarnings_PerCallOverride(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			resp := jsonResponse(http.StatusOK, `{"found":true,"_id":"42"}`)
			resp.Header.Add("Warning", `299 - "deprecated"`)
			return resp, nil
		},
	}
	client := newTestClient(t, mock) // permissive by default

	req := &GetRequest{ID: "42"}
	req.Options = &CallOptions{Warnings: WarningsStrict}
	_, err := client.Documents("articles").Get(context.Background(), req)

	var we *WarningsError
	if !errors.As(err, &we) {
		t.Fatalf("error = %v, want *WarningsError from the per-call override", err)
	}
}

func TestWarnings_PermissiveContinues(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			resp := jsonResponse(http.StatusOK, `{"found":true,"_id":"42"}`)
			resp.Header.Add("Warning", `299 - "deprecated"`)
			return resp, nil
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Found {
		t.Error("Found = false, want true")
	}
}

func TestSearchAsync_CallbackInvokedOnce(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return jsonResponse(http.StatusOK,
				`{"took":3,"hits":{"total":{"value":1,"relation":"eq"},"hits":[{"_id":"1"}]}}`), nil
		},
	}
	client := newTestClient(t, mock)

	done := make(chan struct{})
	var got *SearchResponse
	var gotErr error
	calls := 0
	client.Search("articles").SearchAsync(context.Background(), &SearchRequest{}, func(resp *SearchResponse, err error) {
		calls++
		got, gotErr = resp, err
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}
	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if got.Hits.Total.Value != 1 {
		t.Errorf("total = %d, want 1", got.Hits.Total.Value)
	}
}

func TestSearchAsync_ValidationDeliveredThroughCallback(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			t.Error("transport must not be invoked for an invalid request")
			return nil, nil
		},
	}
	client := newTestClient(t, mock)

	done := make(chan error, 1)
	client.Search("").SearchAsync(context.Background(), &SearchRequest{}, func(_ *SearchResponse, err error) {
		done <- err
	})

	select {
	case err := <-done:
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestCallOptions_MultiValuedHeaderKept(t *testing.T) {
	mock := &mockTransport{
		performFn: func(_ context.Context, req *transport.Request) (*transport.Response, error) {
			got := req.Header.Values("X-Trace")
			if len(got) != 2 || got[0] != "one" || got[1] != "two" {
				t.Errorf("X-Trace = %v, want both per-call values", got)
			}
			return jsonResponse(http.StatusOK, `{"found":true,"_id":"42"}`), nil
		},
	}
	client := newTestClient(t, mock)

	req := &GetRequest{ID: "42"}
	req.Options = &CallOptions{Header: http.Header{"X-Trace": {"one", "two"}}}
	if _, err := client.Documents("articles").Get(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPerform_TransportFailurePassesThrough(t *testing.T) {
	wantErr := errors.New("connection refused")
	mock := &mockTransport{
		performFn: func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
			return nil, wantErr
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Documents("articles").Get(context.Background(), &GetRequest{ID: "42"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want the transport failure unchanged", err)
	}
}
