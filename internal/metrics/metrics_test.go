package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAndObserve(t *testing.T) {
	c := NewClient()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.ObserveRequest("GET", "doc.get", 200, 5*time.Millisecond)
	c.ObserveRequest("GET", "doc.get", 200, 7*time.Millisecond)
	c.CacheTotal.WithLabelValues("hit").Inc()

	got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "doc.get", "200"))
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.CacheTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
}

func TestRegister_Twice(t *testing.T) {
	c := NewClient()
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Register(reg); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}
