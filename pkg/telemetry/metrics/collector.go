package metrics

import (
	"spyglass-hq/spyglass/pkg/config"
	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/txstore"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric Spyglass exposes.
const namespace = "spyglass"

// Collector owns the Prometheus registry and every metric Spyglass exposes.
// It is wired once at startup: transaction metrics flow in through the
// store's finalize hook, gauges are sourced from live pipeline state at
// scrape time.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	proxyMetrics   *ProxyMetrics
	archiveMetrics *ArchiveMetrics
}

// NewCollector creates a metrics collector registered against the given
// registry. If registry is nil, a private registry is created; the default
// Prometheus registry is never used, so Spyglass metrics stay free of the
// client library's process collectors unless explicitly added.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.proxyMetrics = NewProxyMetrics(registry)
	c.archiveMetrics = NewArchiveMetrics(registry)

	return c
}

// RecordTransaction records a finalized transaction. Wire it to the store:
//
//	store.OnFinalize(collector.RecordTransaction)
func (c *Collector) RecordTransaction(tx txstore.Transaction) {
	if !c.config.Enabled {
		return
	}

	c.proxyMetrics.RecordTransaction(tx)
}

// RecordArchiveWrite records one transaction persisted to the archive.
func (c *Collector) RecordArchiveWrite() {
	if !c.config.Enabled {
		return
	}

	c.archiveMetrics.RecordWrite()
}

// RecordArchiveDrop records one transaction dropped because the archive
// queue was full.
func (c *Collector) RecordArchiveDrop() {
	if !c.config.Enabled {
		return
	}

	c.archiveMetrics.RecordDrop()
}

// RecordArchivePruned records rows removed by a retention run.
func (c *Collector) RecordArchivePruned(rows int64) {
	if !c.config.Enabled {
		return
	}

	c.archiveMetrics.RecordPruned(rows)
}

// TrackActiveRequests registers a gauge sourced from fn at scrape time,
// typically store.Outstanding.
func (c *Collector) TrackActiveRequests(fn func() int64) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "active_requests",
			Help:      "Number of admitted requests not yet finalized",
		},
		func() float64 { return float64(fn()) },
	))
}

// TrackUpstreamHealth registers a collector that reads the health tracker's
// state at scrape time and exposes per-upstream eligibility and failure
// streaks.
func (c *Collector) TrackUpstreamHealth(tracker *health.Tracker) {
	c.registry.MustRegister(newHealthCollector(tracker))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
