package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ArchiveMetrics tracks the asynchronous transaction archive.
//
// Metrics:
//   - spyglass_archive_writes_total: Transactions persisted
//   - spyglass_archive_dropped_total: Transactions dropped on a full queue
//   - spyglass_archive_pruned_rows_total: Rows removed by retention runs
type ArchiveMetrics struct {
	writesTotal  prometheus.Counter
	droppedTotal prometheus.Counter
	prunedTotal  prometheus.Counter
}

// NewArchiveMetrics creates and registers archive metrics with the provided
// registry.
func NewArchiveMetrics(registry *prometheus.Registry) *ArchiveMetrics {
	am := &ArchiveMetrics{
		writesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "writes_total",
				Help:      "Total number of transactions persisted to the archive",
			},
		),

		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "dropped_total",
				Help:      "Total number of transactions dropped because the archive queue was full",
			},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "pruned_rows_total",
				Help:      "Total number of archive rows removed by retention runs",
			},
		),
	}

	registry.MustRegister(
		am.writesTotal,
		am.droppedTotal,
		am.prunedTotal,
	)

	return am
}

// RecordWrite records one persisted transaction.
func (am *ArchiveMetrics) RecordWrite() {
	am.writesTotal.Inc()
}

// RecordDrop records one dropped transaction.
func (am *ArchiveMetrics) RecordDrop() {
	am.droppedTotal.Inc()
}

// RecordPruned records rows removed by a retention run.
func (am *ArchiveMetrics) RecordPruned(rows int64) {
	if rows > 0 {
		am.prunedTotal.Add(float64(rows))
	}
}
