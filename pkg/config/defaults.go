package config

import "time"

// Default values for configuration fields.
const (
	// Listener defaults
	DefaultListen        = "0.0.0.0:8080"
	DefaultControlListen = "127.0.0.1:9000"

	// Proxy defaults
	DefaultUpstreamTimeout         = 30 * time.Second
	DefaultMaxIdleConnsPerUpstream = 32
	DefaultHistorySize             = 1000
	DefaultCaptureBodyLimit        = 65536 // 64KB
	DefaultStrategy                = "weighted-random"
	DefaultReadHeaderTimeout       = 10 * time.Second
	DefaultIdleTimeout             = 120 * time.Second
	DefaultShutdownTimeout         = 30 * time.Second
	DefaultMaxHeaderBytes          = 1048576 // 1MB

	// Route defaults
	DefaultPathPrefix = "/"

	// Upstream defaults
	DefaultUpstreamWeight = 1
	DefaultFailThreshold  = 3
	DefaultCooldown       = 15 * time.Second

	// Archive defaults
	DefaultArchivePath       = "data/spyglass.db"
	DefaultArchiveBufferSize = 1000
	DefaultRetentionSchedule = "0 3 * * *"
	DefaultRetentionMaxAge   = 168 * time.Hour // 7 days

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults fills in default values for any fields left at their zero
// value. It is idempotent: fields already set are never modified.
func ApplyDefaults(cfg *Config) {
	// Listener defaults
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Control.Listen == "" {
		cfg.Control.Listen = DefaultControlListen
	}

	// Proxy defaults
	if cfg.Proxy.UpstreamTimeout == 0 {
		cfg.Proxy.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Proxy.MaxIdleConnsPerUpstream == 0 {
		cfg.Proxy.MaxIdleConnsPerUpstream = DefaultMaxIdleConnsPerUpstream
	}
	if cfg.Proxy.HistorySize == 0 {
		cfg.Proxy.HistorySize = DefaultHistorySize
	}
	if cfg.Proxy.CaptureBodyLimit == 0 {
		cfg.Proxy.CaptureBodyLimit = DefaultCaptureBodyLimit
	}
	if cfg.Proxy.Strategy == "" {
		cfg.Proxy.Strategy = DefaultStrategy
	}
	if cfg.Proxy.ReadHeaderTimeout == 0 {
		cfg.Proxy.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Route and upstream defaults
	for i := range cfg.Routes {
		route := &cfg.Routes[i]
		if route.PathPrefix == "" {
			route.PathPrefix = DefaultPathPrefix
		}
		for j := range route.Upstreams {
			upstream := &route.Upstreams[j]
			if upstream.Weight == 0 {
				upstream.Weight = DefaultUpstreamWeight
			}
			if upstream.FailThreshold == 0 {
				upstream.FailThreshold = DefaultFailThreshold
			}
			if upstream.Cooldown == 0 {
				upstream.Cooldown = DefaultCooldown
			}
		}
	}

	// Archive defaults
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}
	if cfg.Archive.BufferSize == 0 {
		cfg.Archive.BufferSize = DefaultArchiveBufferSize
	}
	if cfg.Archive.Retention.Schedule == "" {
		cfg.Archive.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.Archive.Retention.MaxAge == 0 {
		cfg.Archive.Retention.MaxAge = DefaultRetentionMaxAge
	}

	// Telemetry defaults. Metrics.Enabled defaults to true and is seeded
	// before YAML parsing in LoadConfig, where absent and explicit-false
	// keys are still distinguishable.
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
