package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes content to a temporary file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spyglass.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	content := `
listen: "0.0.0.0:8888"
control:
  listen: "127.0.0.1:9100"
proxy:
  upstream_timeout: "5s"
  history_size: 250
  capture_body_limit: 1024
  strategy: round-robin
routes:
  - name: api
    hosts: ["example.com", "*.example.org"]
    path_prefix: /api
    strip_prefix: true
    rewrite_prefix: /v1
    upstreams:
      - url: http://10.0.0.1:3000
        weight: 2
        fail_threshold: 5
        cooldown: "30s"
      - url: http://10.0.0.2:3000
archive:
  enabled: true
  path: /tmp/spyglass-test.db
  retention:
    schedule: "30 2 * * *"
    max_age: "72h"
telemetry:
  logging:
    level: debug
    format: text
`
	path := writeConfigFile(t, content)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if cfg.Listen != "0.0.0.0:8888" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "0.0.0.0:8888")
	}
	if cfg.Control.Listen != "127.0.0.1:9100" {
		t.Errorf("Control.Listen = %q, want %q", cfg.Control.Listen, "127.0.0.1:9100")
	}
	if cfg.Proxy.UpstreamTimeout != 5*time.Second {
		t.Errorf("Proxy.UpstreamTimeout = %v, want 5s", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.Proxy.HistorySize != 250 {
		t.Errorf("Proxy.HistorySize = %d, want 250", cfg.Proxy.HistorySize)
	}
	if cfg.Proxy.CaptureBodyLimit != 1024 {
		t.Errorf("Proxy.CaptureBodyLimit = %d, want 1024", cfg.Proxy.CaptureBodyLimit)
	}
	if cfg.Proxy.Strategy != "round-robin" {
		t.Errorf("Proxy.Strategy = %q, want %q", cfg.Proxy.Strategy, "round-robin")
	}
	// Absent proxy fields take defaults.
	if cfg.Proxy.MaxIdleConnsPerUpstream != DefaultMaxIdleConnsPerUpstream {
		t.Errorf("Proxy.MaxIdleConnsPerUpstream = %d, want default %d",
			cfg.Proxy.MaxIdleConnsPerUpstream, DefaultMaxIdleConnsPerUpstream)
	}

	if len(cfg.Routes) != 1 {
		t.Fatalf("len(Routes) = %d, want 1", len(cfg.Routes))
	}
	route := cfg.Routes[0]
	if route.Name != "api" {
		t.Errorf("route.Name = %q, want %q", route.Name, "api")
	}
	if len(route.Hosts) != 2 || route.Hosts[1] != "*.example.org" {
		t.Errorf("route.Hosts = %v, want [example.com *.example.org]", route.Hosts)
	}
	if route.PathPrefix != "/api" {
		t.Errorf("route.PathPrefix = %q, want %q", route.PathPrefix, "/api")
	}
	if !route.StripPrefix {
		t.Error("route.StripPrefix = false, want true")
	}
	if route.RewritePrefix != "/v1" {
		t.Errorf("route.RewritePrefix = %q, want %q", route.RewritePrefix, "/v1")
	}

	if len(route.Upstreams) != 2 {
		t.Fatalf("len(route.Upstreams) = %d, want 2", len(route.Upstreams))
	}
	first := route.Upstreams[0]
	if first.URL != "http://10.0.0.1:3000" {
		t.Errorf("upstream URL = %q, want %q", first.URL, "http://10.0.0.1:3000")
	}
	if first.Weight != 2 {
		t.Errorf("upstream Weight = %d, want 2", first.Weight)
	}
	if first.FailThreshold != 5 {
		t.Errorf("upstream FailThreshold = %d, want 5", first.FailThreshold)
	}
	if first.Cooldown != 30*time.Second {
		t.Errorf("upstream Cooldown = %v, want 30s", first.Cooldown)
	}
	// The second upstream left everything but the URL to defaults.
	second := route.Upstreams[1]
	if second.Weight != DefaultUpstreamWeight {
		t.Errorf("defaulted Weight = %d, want %d", second.Weight, DefaultUpstreamWeight)
	}
	if second.FailThreshold != DefaultFailThreshold {
		t.Errorf("defaulted FailThreshold = %d, want %d", second.FailThreshold, DefaultFailThreshold)
	}
	if second.Cooldown != DefaultCooldown {
		t.Errorf("defaulted Cooldown = %v, want %v", second.Cooldown, DefaultCooldown)
	}

	if !cfg.Archive.Enabled {
		t.Error("Archive.Enabled = false, want true")
	}
	if cfg.Archive.Path != "/tmp/spyglass-test.db" {
		t.Errorf("Archive.Path = %q, want %q", cfg.Archive.Path, "/tmp/spyglass-test.db")
	}
	if cfg.Archive.BufferSize != DefaultArchiveBufferSize {
		t.Errorf("Archive.BufferSize = %d, want default %d", cfg.Archive.BufferSize, DefaultArchiveBufferSize)
	}
	if cfg.Archive.Retention.Schedule != "30 2 * * *" {
		t.Errorf("Retention.Schedule = %q, want %q", cfg.Archive.Retention.Schedule, "30 2 * * *")
	}
	if cfg.Archive.Retention.MaxAge != 72*time.Hour {
		t.Errorf("Retention.MaxAge = %v, want 72h", cfg.Archive.Retention.MaxAge)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, "debug")
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Telemetry.Logging.Format, "text")
	}
}

func TestLoadConfigMinimal(t *testing.T) {
	content := `
routes:
  - name: all
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
`
	path := writeConfigFile(t, content)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want default %q", cfg.Listen, DefaultListen)
	}
	if cfg.Control.Listen != DefaultControlListen {
		t.Errorf("Control.Listen = %q, want default %q", cfg.Control.Listen, DefaultControlListen)
	}
	if cfg.Proxy.UpstreamTimeout != DefaultUpstreamTimeout {
		t.Errorf("UpstreamTimeout = %v, want default %v", cfg.Proxy.UpstreamTimeout, DefaultUpstreamTimeout)
	}
	if cfg.Proxy.Strategy != DefaultStrategy {
		t.Errorf("Strategy = %q, want default %q", cfg.Proxy.Strategy, DefaultStrategy)
	}
	if cfg.Routes[0].PathPrefix != DefaultPathPrefix {
		t.Errorf("PathPrefix = %q, want default %q", cfg.Routes[0].PathPrefix, DefaultPathPrefix)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false by default")
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Telemetry.Logging.Level, DefaultLoggingLevel)
	}
	if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Telemetry.Logging.Format, DefaultLoggingFormat)
	}
}

func TestLoadConfigMetricsEnabledDefault(t *testing.T) {
	base := `
routes:
  - name: all
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
`

	t.Run("absent key keeps default true", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfigFile(t, base))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if !cfg.Telemetry.Metrics.Enabled {
			t.Error("Metrics.Enabled = false, want true by default")
		}
	})

	t.Run("explicit false wins", func(t *testing.T) {
		content := base + `
telemetry:
  metrics:
    enabled: false
`
		cfg, err := LoadConfig(writeConfigFile(t, content))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if cfg.Telemetry.Metrics.Enabled {
			t.Error("Metrics.Enabled = true, want false when explicitly disabled")
		}
	})
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %q, want mention of read failure", err.Error())
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "listen: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %q, want mention of parse failure", err.Error())
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	content := `
proxy:
  strategy: fastest
routes:
  - name: api
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
`
	path := writeConfigFile(t, content)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T, want ValidationError in chain", err)
	}
	if len(verr.Errors) != 1 {
		t.Fatalf("len(verr.Errors) = %d, want 1", len(verr.Errors))
	}
	if verr.Errors[0].Field != "proxy.strategy" {
		t.Errorf("Field = %q, want %q", verr.Errors[0].Field, "proxy.strategy")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	content := `
listen: "0.0.0.0:8080"
proxy:
  upstream_timeout: "30s"
routes:
  - name: api
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
archive:
  enabled: false
`
	path := writeConfigFile(t, content)

	t.Setenv("SPYGLASS_LISTEN", "0.0.0.0:9999")
	t.Setenv("SPYGLASS_CONTROL_LISTEN", "127.0.0.1:9001")
	t.Setenv("SPYGLASS_PROXY_UPSTREAM_TIMEOUT", "2s")
	t.Setenv("SPYGLASS_PROXY_STRATEGY", "round-robin")
	t.Setenv("SPYGLASS_ARCHIVE_ENABLED", "true")
	t.Setenv("SPYGLASS_ARCHIVE_PATH", "/tmp/override.db")
	t.Setenv("SPYGLASS_LOGGING_LEVEL", "warn")
	t.Setenv("SPYGLASS_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v, want nil", err)
	}

	if cfg.Listen != "0.0.0.0:9999" {
		t.Errorf("Listen = %q, want env override %q", cfg.Listen, "0.0.0.0:9999")
	}
	if cfg.Control.Listen != "127.0.0.1:9001" {
		t.Errorf("Control.Listen = %q, want env override %q", cfg.Control.Listen, "127.0.0.1:9001")
	}
	if cfg.Proxy.UpstreamTimeout != 2*time.Second {
		t.Errorf("UpstreamTimeout = %v, want env override 2s", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.Proxy.Strategy != "round-robin" {
		t.Errorf("Strategy = %q, want env override %q", cfg.Proxy.Strategy, "round-robin")
	}
	if !cfg.Archive.Enabled {
		t.Error("Archive.Enabled = false, want env override true")
	}
	if cfg.Archive.Path != "/tmp/override.db" {
		t.Errorf("Archive.Path = %q, want env override %q", cfg.Archive.Path, "/tmp/override.db")
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want env override %q", cfg.Telemetry.Logging.Level, "warn")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want env override false")
	}
}

func TestLoadConfigWithEnvOverridesInvalidValues(t *testing.T) {
	content := `
proxy:
  upstream_timeout: "10s"
  history_size: 500
routes:
  - name: api
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
`
	path := writeConfigFile(t, content)

	// Unparsable values are skipped, leaving file values in place.
	t.Setenv("SPYGLASS_PROXY_UPSTREAM_TIMEOUT", "soon")
	t.Setenv("SPYGLASS_PROXY_HISTORY_SIZE", "lots")
	t.Setenv("SPYGLASS_ARCHIVE_ENABLED", "maybe")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v, want nil", err)
	}

	if cfg.Proxy.UpstreamTimeout != 10*time.Second {
		t.Errorf("UpstreamTimeout = %v, want file value 10s", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.Proxy.HistorySize != 500 {
		t.Errorf("HistorySize = %d, want file value 500", cfg.Proxy.HistorySize)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want file value false")
	}
}

func TestLoadConfigWithEnvOverridesRevalidates(t *testing.T) {
	content := `
routes:
  - name: api
    hosts: ["example.com"]
    upstreams:
      - url: http://127.0.0.1:3000
`
	path := writeConfigFile(t, content)

	t.Setenv("SPYGLASS_PROXY_STRATEGY", "fastest")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("LoadConfigWithEnvOverrides() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("error = %q, want mention of environment overrides", err.Error())
	}
}
