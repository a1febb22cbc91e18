package metrics

import (
	"spyglass-hq/spyglass/pkg/health"

	"github.com/prometheus/client_golang/prometheus"
)

// healthCollector exposes the health tracker's per-upstream state. It reads
// a snapshot at scrape time rather than being fed updates, so the gauges can
// never drift from what selection actually sees.
type healthCollector struct {
	tracker *health.Tracker

	healthy  *prometheus.Desc
	failures *prometheus.Desc
}

func newHealthCollector(tracker *health.Tracker) *healthCollector {
	return &healthCollector{
		tracker: tracker,
		healthy: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "proxy", "upstream_healthy"),
			"Whether the upstream is eligible for selection (1) or cooling (0)",
			[]string{"upstream"},
			nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "proxy", "upstream_consecutive_failures"),
			"Current consecutive failure streak per upstream",
			[]string{"upstream"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (hc *healthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- hc.healthy
	ch <- hc.failures
}

// Collect implements prometheus.Collector.
func (hc *healthCollector) Collect(ch chan<- prometheus.Metric) {
	for _, uh := range hc.tracker.Snapshot() {
		eligible := 0.0
		if uh.Status == health.StatusHealthy.String() {
			eligible = 1.0
		}
		ch <- prometheus.MustNewConstMetric(hc.healthy, prometheus.GaugeValue, eligible, uh.URL)
		ch <- prometheus.MustNewConstMetric(hc.failures, prometheus.GaugeValue, float64(uh.ConsecutiveFailures), uh.URL)
	}
}
