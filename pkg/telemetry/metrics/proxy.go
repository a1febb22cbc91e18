package metrics

import (
	"spyglass-hq/spyglass/pkg/txstore"

	"github.com/prometheus/client_golang/prometheus"
)

// ProxyMetrics tracks metrics for the request pipeline.
//
// Metrics:
//   - spyglass_proxy_requests_total: Total requests by route, upstream, outcome
//   - spyglass_proxy_request_duration_seconds: End-to-end duration histogram
//   - spyglass_proxy_body_size_bytes: Request/response body sizes
//   - spyglass_proxy_replays_total: Replayed transactions re-admitted
type ProxyMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bodySize        *prometheus.HistogramVec
	replaysTotal    prometheus.Counter
}

// NewProxyMetrics creates and registers pipeline metrics with the provided
// registry.
func NewProxyMetrics(registry *prometheus.Registry) *ProxyMetrics {
	pm := &ProxyMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of proxied requests by route, upstream, and outcome",
			},
			[]string{"route", "upstream", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "request_duration_seconds",
				Help:      "End-to-end duration of proxied requests in seconds",
				Buckets:   append(prometheus.DefBuckets, 30),
			},
			[]string{"route", "upstream"},
		),

		bodySize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "body_size_bytes",
				Help:      "Size of request and response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4GB
			},
			[]string{"direction"},
		),

		replaysTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "replays_total",
				Help:      "Total number of replayed transactions re-admitted through the pipeline",
			},
		),
	}

	registry.MustRegister(
		pm.requestsTotal,
		pm.requestDuration,
		pm.bodySize,
		pm.replaysTotal,
	)

	return pm
}

// RecordTransaction records a finalized transaction. Transactions that never
// matched a route or never selected an upstream carry the label value "none"
// there, keeping outcome counts complete without inventing identities.
func (pm *ProxyMetrics) RecordTransaction(tx txstore.Transaction) {
	route := tx.Route
	if route == "" {
		route = "none"
	}
	upstream := tx.Upstream
	if upstream == "" {
		upstream = "none"
	}

	pm.requestsTotal.WithLabelValues(route, upstream, string(tx.Outcome)).Inc()
	pm.requestDuration.WithLabelValues(route, upstream).Observe(tx.EndTime.Sub(tx.StartTime).Seconds())

	if tx.RequestBytes > 0 {
		pm.bodySize.WithLabelValues("request").Observe(float64(tx.RequestBytes))
	}
	if tx.ResponseBytes > 0 {
		pm.bodySize.WithLabelValues("response").Observe(float64(tx.ResponseBytes))
	}

	if tx.ReplayOf != 0 {
		pm.replaysTotal.Inc()
	}
}
