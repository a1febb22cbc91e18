package config

import "time"

// Config is the root configuration structure for Spyglass.
type Config struct {
	// Listen is the data-plane address proxied traffic is accepted on.
	// Default: "0.0.0.0:8080"
	Listen string `yaml:"listen"`

	// Control contains control API server configuration.
	Control ControlConfig `yaml:"control"`

	// Proxy contains forwarding and transaction history configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Routes is the ordered list of routes. Requests are matched against
	// routes first to last; the first match wins.
	Routes []RouteConfig `yaml:"routes"`

	// Archive contains transaction archive configuration.
	Archive ArchiveConfig `yaml:"archive"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ControlConfig contains control API server configuration. The control API
// serves transaction history, health state, replay, and metrics; it is
// separate from the data plane so inspecting the proxy never competes with
// proxied traffic.
type ControlConfig struct {
	// Listen is the address the control API is served on. Loopback by
	// default; binding a non-loopback address exposes replay and history
	// to the network.
	// Default: "127.0.0.1:9000"
	Listen string `yaml:"listen"`
}

// ProxyConfig contains forwarding behavior and history sizing.
type ProxyConfig struct {
	// UpstreamTimeout is the per-attempt deadline for a forwarded request,
	// covering connection, request write, and response header read.
	// Default: 30s
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// MaxIdleConnsPerUpstream is the size of the idle connection pool kept
	// per upstream.
	// Default: 32
	MaxIdleConnsPerUpstream int `yaml:"max_idle_conns_per_upstream"`

	// HistorySize is the capacity of the in-memory transaction ring. The
	// oldest finalized transaction is evicted when the ring is full.
	// Default: 1000
	HistorySize int `yaml:"history_size"`

	// CaptureBodyLimit is the maximum number of request body bytes retained
	// for replay. A body that exceeds the limit streams through uncaptured
	// and marks its transaction non-replayable.
	// Default: 65536
	CaptureBodyLimit int `yaml:"capture_body_limit"`

	// Strategy selects how an upstream is picked among a route's healthy
	// candidates. Options: "weighted-random", "round-robin".
	// Default: "weighted-random"
	Strategy string `yaml:"strategy"`

	// ReadHeaderTimeout bounds how long the data plane waits for a client's
	// request headers. Request and response bodies are not bounded here so
	// long-lived streams keep flowing.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout is how long an idle client keep-alive connection is kept
	// open.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight requests to
	// drain during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes is the maximum size of client request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RouteConfig describes one route: which requests it matches and where they
// are forwarded.
type RouteConfig struct {
	// Name identifies the route in logs, metrics, and transaction records.
	// Names must be unique; they carry no matching semantics.
	Name string `yaml:"name"`

	// Hosts lists the host patterns this route matches: an exact host
	// ("example.com") or a single-level wildcard ("*.example.org"). At
	// least one is required.
	Hosts []string `yaml:"hosts"`

	// PathPrefix is the path prefix this route matches, on segment
	// boundaries. Must start with "/".
	// Default: "/"
	PathPrefix string `yaml:"path_prefix"`

	// StripPrefix removes the matched prefix from the path before
	// forwarding.
	// Default: false
	StripPrefix bool `yaml:"strip_prefix"`

	// RewritePrefix, when set, is prepended to the outbound path after any
	// stripping.
	RewritePrefix string `yaml:"rewrite_prefix"`

	// Upstreams is the ordered list of backends for this route. At least
	// one is required.
	Upstreams []UpstreamConfig `yaml:"upstreams"`
}

// UpstreamConfig describes one backend target and its health policy.
type UpstreamConfig struct {
	// URL is the base URL requests are forwarded to. Must be an absolute
	// http or https URL. The URL string as written here is the upstream's
	// identity in health state, transaction records, and metrics.
	URL string `yaml:"url"`

	// Weight is this upstream's share of traffic relative to the route's
	// other healthy upstreams.
	// Default: 1
	Weight int `yaml:"weight"`

	// FailThreshold is the number of consecutive failures after which the
	// upstream is placed in cooldown.
	// Default: 3
	FailThreshold int `yaml:"fail_threshold"`

	// Cooldown is how long a tripped upstream is skipped before it becomes
	// eligible again.
	// Default: 15s
	Cooldown time.Duration `yaml:"cooldown"`
}

// ArchiveConfig contains configuration for the SQLite transaction archive.
// The archive persists transaction summaries across restarts; headers and
// bodies are never archived.
type ArchiveConfig struct {
	// Enabled turns the archive on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. The parent directory is created at
	// startup if it does not exist.
	// Default: "data/spyglass.db"
	Path string `yaml:"path"`

	// BufferSize is the length of the asynchronous write queue between the
	// proxy and the archive writer. Transactions finalized while the queue
	// is full are dropped from the archive, never from the in-memory ring.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// Retention configures periodic pruning of old archive rows.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls how long archived transactions are kept.
type RetentionConfig struct {
	// Schedule is a standard five-field cron expression for when pruning
	// runs.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// MaxAge is the age past which archived transactions are pruned.
	// Default: 168h
	MaxAge time.Duration `yaml:"max_age"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed on the
	// control API.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the control API path the metrics endpoint is served at.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
