// Spyglass is a weighted-load-balancing reverse proxy with live traffic
// inspection.
//
// It routes inbound HTTP requests to configured upstream backends, providing:
//   - Host and path-prefix based routing with path rewriting
//   - Weighted upstream selection with passive health tracking
//   - A transaction history of every proxied exchange, with replay
//   - A control API and terminal dashboard for live inspection
//
// Usage:
//
//	# Start the proxy with default configuration
//	spyglass run
//
//	# Start with a custom configuration file
//	spyglass run --config /path/to/spyglass.yaml
//
//	# Validate a configuration file without starting
//	spyglass validate --config /path/to/spyglass.yaml
//
//	# Open the terminal dashboard against a running proxy
//	spyglass tui --control-url http://127.0.0.1:9000
//
//	# Show version information
//	spyglass version
package main

func main() {
	Execute()
}
