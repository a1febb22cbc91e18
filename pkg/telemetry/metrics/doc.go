// Package metrics provides Prometheus metrics for Spyglass.
//
// # Design
//
// All metrics live in a private registry owned by a Collector. Transaction
// metrics are pushed through the store's finalize hook, so the hot path
// never touches Prometheus directly; pipeline gauges (active requests,
// upstream health) are pulled from live state at scrape time and cannot
// drift.
//
// # Metrics
//
// Pipeline:
//
//   - spyglass_proxy_requests_total{route, upstream, outcome}
//   - spyglass_proxy_request_duration_seconds{route, upstream}
//   - spyglass_proxy_body_size_bytes{direction}
//   - spyglass_proxy_replays_total
//   - spyglass_proxy_active_requests
//   - spyglass_proxy_upstream_healthy{upstream}
//   - spyglass_proxy_upstream_consecutive_failures{upstream}
//
// Archive:
//
//   - spyglass_archive_writes_total
//   - spyglass_archive_dropped_total
//   - spyglass_archive_pruned_rows_total
//
// # Wiring
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	store.OnFinalize(collector.RecordTransaction)
//	collector.TrackActiveRequests(store.Outstanding)
//	collector.TrackUpstreamHealth(tracker)
//
// The exposition endpoint comes from Collector.Handler and is mounted on
// the control API, never the data plane.
package metrics
