package elasticsearch

import (
	"context"
	"net/http"
	"testing"

	"github.com/isabella232/elasticsearch/transport"
)

// mockTransport implements transport.Performer with function fields so
// each test supplies only the behavior it needs.
type mockTransport struct {
	performFn func(ctx context.Context, req *transport.Request) (*transport.Response, error)
	calls     int
}

func (m *mockTransport) Perform(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.calls++
	return m.performFn(ctx, req)
}

func (m *mockTransport) PerformAsync(ctx context.Context, req *transport.Request, cb func(*transport.Response, error)) {
	go func() {
		cb(m.Perform(ctx, req))
	}()
}

// newTestClient builds a client backed by the mock transport.
func newTestClient(t *testing.T, mock *mockTransport, opts ...Option) *Client {
	t.Helper()
	client, err := New(append([]Option{WithTransport(mock)}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

// jsonResponse builds a canned JSON response.
func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}
