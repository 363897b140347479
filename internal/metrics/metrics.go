// Package metrics defines the Prometheus collectors exposed by the client.
// Registration is explicit (no init()): the host application decides which
// registerer, if any, receives the collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client holds the per-request collectors observed by the transport and
// the document cache.
type Client struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheTotal      *prometheus.CounterVec
}

// NewClient creates unregistered client collectors.
func NewClient() *Client {
	return &Client{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elasticsearch",
				Name:      "requests_total",
				Help:      "Total number of requests performed by the client",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "elasticsearch",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		CacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elasticsearch",
				Name:      "document_cache_total",
				Help:      "Document cache hits and misses",
			},
			[]string{"result"}, // "hit" / "miss"
		),
	}
}

// ObserveRequest records one completed exchange. It satisfies the
// transport's Observer interface.
func (c *Client) ObserveRequest(method, endpoint string, status int, latency time.Duration) {
	c.RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, endpoint).Observe(latency.Seconds())
}

// Register registers all collectors with reg.
func (c *Client) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.RequestsTotal, c.RequestDuration, c.CacheTotal,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
