// Package control serves the read-mostly control API on its own listener,
// separate from the data plane (default 127.0.0.1:9000).
//
// # Endpoints
//
//   - GET  /health                        liveness
//   - GET  /api/stats                     request counters + upstream health
//   - GET  /api/transactions?limit=N      recent transactions, newest first
//   - GET  /api/transactions/{id}         one transaction
//   - POST /api/transactions/{id}/replay  reissue a stored request
//   - GET  /metrics                       Prometheus exposition (when enabled)
//
// Replay is the only endpoint with side effects. It rebuilds the recorded
// request and serves it through the proxy pipeline in a detached goroutine,
// answering 202 with the original and replay transaction ids once the
// replay is admitted. A transaction whose body overflowed the capture limit
// answers 409.
//
// The TUI and any scripting against Spyglass consume this API; the data
// plane never routes to it.
package control
