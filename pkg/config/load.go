package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	// Fields whose default is true are seeded before parsing so that an
	// absent key keeps the default while an explicit false still wins.
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SPYGLASS_SECTION_FIELD (e.g., SPYGLASS_CONTROL_LISTEN).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format SPYGLASS_SECTION_FIELD.
// Values that fail to parse are skipped, leaving the file value in place.
func applyEnvOverrides(cfg *Config) {
	// Listener overrides
	if val := os.Getenv("SPYGLASS_LISTEN"); val != "" {
		cfg.Listen = val
	}
	if val := os.Getenv("SPYGLASS_CONTROL_LISTEN"); val != "" {
		cfg.Control.Listen = val
	}

	// Proxy overrides
	if val := os.Getenv("SPYGLASS_PROXY_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.UpstreamTimeout = d
		}
	}
	if val := os.Getenv("SPYGLASS_PROXY_MAX_IDLE_CONNS_PER_UPSTREAM"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.MaxIdleConnsPerUpstream = n
		}
	}
	if val := os.Getenv("SPYGLASS_PROXY_HISTORY_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.HistorySize = n
		}
	}
	if val := os.Getenv("SPYGLASS_PROXY_CAPTURE_BODY_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.CaptureBodyLimit = n
		}
	}
	if val := os.Getenv("SPYGLASS_PROXY_STRATEGY"); val != "" {
		cfg.Proxy.Strategy = val
	}
	if val := os.Getenv("SPYGLASS_PROXY_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ShutdownTimeout = d
		}
	}

	// Archive overrides
	if val := os.Getenv("SPYGLASS_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if val := os.Getenv("SPYGLASS_ARCHIVE_PATH"); val != "" {
		cfg.Archive.Path = val
	}
	if val := os.Getenv("SPYGLASS_ARCHIVE_BUFFER_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Archive.BufferSize = n
		}
	}
	if val := os.Getenv("SPYGLASS_ARCHIVE_RETENTION_SCHEDULE"); val != "" {
		cfg.Archive.Retention.Schedule = val
	}
	if val := os.Getenv("SPYGLASS_ARCHIVE_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Archive.Retention.MaxAge = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SPYGLASS_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SPYGLASS_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SPYGLASS_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
