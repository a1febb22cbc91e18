package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.strategy").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateListeners(cfg)...)
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateRoutes(cfg.Routes)...)
	errs = append(errs, validateArchive(&cfg.Archive)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateListeners validates the data-plane and control listen addresses.
func validateListeners(cfg *Config) []FieldError {
	var errs []FieldError

	errs = append(errs, validateListenAddress("listen", cfg.Listen)...)
	errs = append(errs, validateListenAddress("control.listen", cfg.Control.Listen)...)

	return errs
}

func validateListenAddress(field, addr string) []FieldError {
	if addr == "" {
		return []FieldError{{Field: field, Message: "field is required"}}
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("invalid listen address %q: must be in host:port form", addr),
		}}
	}
	return nil
}

// validateProxy validates forwarding and history configuration.
func validateProxy(proxy *ProxyConfig) []FieldError {
	var errs []FieldError

	if proxy.UpstreamTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.upstream_timeout",
			Message: "must be positive",
		})
	}
	if proxy.MaxIdleConnsPerUpstream < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_idle_conns_per_upstream",
			Message: "must be at least 1",
		})
	}
	if proxy.HistorySize < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.history_size",
			Message: "must be at least 1",
		})
	}
	if proxy.CaptureBodyLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.capture_body_limit",
			Message: "must be at least 1",
		})
	}

	switch proxy.Strategy {
	case "weighted-random", "round-robin":
	default:
		errs = append(errs, FieldError{
			Field:   "proxy.strategy",
			Message: fmt.Sprintf("invalid strategy %q: must be one of: weighted-random, round-robin", proxy.Strategy),
		})
	}

	if proxy.ReadHeaderTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.read_header_timeout",
			Message: "must be positive",
		})
	}
	if proxy.IdleTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.idle_timeout",
			Message: "must be positive",
		})
	}
	if proxy.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.shutdown_timeout",
			Message: "must be positive",
		})
	}
	if proxy.MaxHeaderBytes < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "must be at least 1",
		})
	}

	return errs
}

// validateRoutes validates the route list plus every route and upstream in it.
func validateRoutes(routes []RouteConfig) []FieldError {
	var errs []FieldError

	if len(routes) == 0 {
		return []FieldError{{Field: "routes", Message: "at least one route is required"}}
	}

	seen := make(map[string]bool, len(routes))
	for i := range routes {
		route := &routes[i]

		if route.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].name", i),
				Message: "field is required",
			})
		} else if seen[route.Name] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].name", i),
				Message: fmt.Sprintf("duplicate route name %q", route.Name),
			})
		}
		seen[route.Name] = true

		if len(route.Hosts) == 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].hosts", i),
				Message: "at least one host pattern is required",
			})
		}
		for j, host := range route.Hosts {
			if !validHostPattern(host) {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("routes[%d].hosts[%d]", i, j),
					Message: fmt.Sprintf("invalid host pattern %q: must be an exact host or a single leading *. wildcard", host),
				})
			}
		}

		if !strings.HasPrefix(route.PathPrefix, "/") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].path_prefix", i),
				Message: "must start with /",
			})
		}

		if len(route.Upstreams) == 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routes[%d].upstreams", i),
				Message: "at least one upstream is required",
			})
		}
		for j := range route.Upstreams {
			errs = append(errs, validateUpstream(i, j, &route.Upstreams[j])...)
		}
	}

	return errs
}

func validateUpstream(routeIdx, upstreamIdx int, upstream *UpstreamConfig) []FieldError {
	var errs []FieldError
	prefix := fmt.Sprintf("routes[%d].upstreams[%d]", routeIdx, upstreamIdx)

	if upstream.URL == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".url",
			Message: "field is required",
		})
	} else {
		target, err := url.Parse(upstream.URL)
		if err != nil || !target.IsAbs() || target.Host == "" ||
			(target.Scheme != "http" && target.Scheme != "https") {
			errs = append(errs, FieldError{
				Field:   prefix + ".url",
				Message: fmt.Sprintf("invalid URL %q: must be an absolute http or https URL", upstream.URL),
			})
		}
	}

	if upstream.Weight < 1 {
		errs = append(errs, FieldError{
			Field:   prefix + ".weight",
			Message: "must be at least 1",
		})
	}
	if upstream.FailThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   prefix + ".fail_threshold",
			Message: "must be at least 1",
		})
	}
	if upstream.Cooldown <= 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".cooldown",
			Message: "must be positive",
		})
	}

	return errs
}

// validHostPattern reports whether pattern is an exact host or a single
// leading *. wildcard, the two forms route matching understands.
func validHostPattern(pattern string) bool {
	if pattern == "" {
		return false
	}
	if strings.HasPrefix(pattern, "*.") {
		return len(pattern) > 2 && !strings.Contains(pattern[2:], "*")
	}
	return !strings.Contains(pattern, "*")
}

// validateArchive validates archive configuration. Fields are only checked
// when the archive is enabled.
func validateArchive(archive *ArchiveConfig) []FieldError {
	if !archive.Enabled {
		return nil
	}

	var errs []FieldError

	if archive.Path == "" {
		errs = append(errs, FieldError{
			Field:   "archive.path",
			Message: "field is required when archive is enabled",
		})
	}
	if archive.BufferSize < 1 {
		errs = append(errs, FieldError{
			Field:   "archive.buffer_size",
			Message: "must be at least 1",
		})
	}
	if _, err := cron.ParseStandard(archive.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "archive.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", archive.Retention.Schedule, err),
		})
	}
	if archive.Retention.MaxAge <= 0 {
		errs = append(errs, FieldError{
			Field:   "archive.retention.max_age",
			Message: "must be positive",
		})
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(telemetry *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be one of: debug, info, warn, error", telemetry.Logging.Level),
		})
	}

	switch telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be one of: json, text", telemetry.Logging.Format),
		})
	}

	if telemetry.Metrics.Enabled && !strings.HasPrefix(telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	return errs
}
