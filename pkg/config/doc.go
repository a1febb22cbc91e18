// Package config provides configuration management for Spyglass.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("spyglass.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("spyglass.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SPYGLASS_SECTION_FIELD.
// For example:
//
//   - SPYGLASS_LISTEN overrides listen
//   - SPYGLASS_CONTROL_LISTEN overrides control.listen
//   - SPYGLASS_PROXY_UPSTREAM_TIMEOUT overrides proxy.upstream_timeout
//   - SPYGLASS_ARCHIVE_PATH overrides archive.path
//   - SPYGLASS_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// Routes cannot be overridden through the environment; they only come from
// the file.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated during loading. Every rule is checked and
// all failures are reported together, with dotted field paths:
//
//	configuration validation failed with 2 errors:
//	  - proxy.strategy: invalid strategy "fastest" (...)
//	  - routes[0].upstreams[1].url: invalid URL "localhost:3000" (...)
//
// # Hot Reload
//
// Watcher observes the configuration file and triggers a reload callback
// after changes settle, surviving atomic save-by-rename. A reload that fails
// to load or validate leaves the running configuration untouched.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	listen: "0.0.0.0:8080"
//
//	routes:
//	  - name: api
//	    hosts: ["example.com"]
//	    path_prefix: /api
//	    upstreams:
//	      - url: http://10.0.0.1:3000
//
// Everything else takes defaults: the control API on 127.0.0.1:9000, a
// 30s upstream timeout, weighted-random balancing, a 1000-entry history
// ring, JSON logging at info level, and no archive.
package config
