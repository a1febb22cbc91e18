// Package telemetry provides observability for Spyglass.
//
// # Components
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics collection
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	store.OnFinalize(collector.RecordTransaction)
//	collector.TrackActiveRequests(store.Outstanding)
//	collector.TrackUpstreamHealth(tracker)
//
// The metrics endpoint is served by the control API, never by the data
// plane, so scrapes do not compete with proxied traffic.
package telemetry
