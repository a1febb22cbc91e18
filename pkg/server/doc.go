// Package server provides lifecycle management for the spyglass listeners.
//
// This package ties the assembled components together and runs two HTTP
// servers: the data plane, which serves proxied traffic through the pipeline
// handler, and the control plane, which serves the inspection API and
// metrics. The listen addresses are independent so inspecting the proxy never
// competes with proxied traffic.
//
// # Architecture
//
// The server package is the top-level runner that:
//   - Binds the data-plane and control-plane listeners
//   - Chains middleware for cross-cutting concerns
//   - Manages graceful shutdown
//   - Handles OS signals (SIGTERM, SIGINT)
//
// Component construction (store, tracker, pipeline, control router) happens
// in the cmd layer; the server receives finished http.Handlers.
//
// # Basic Usage
//
// Creating and starting a server:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("spyglass.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := server.NewServer(cfg, pipeline, controlRouter)
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, a SIGTERM/SIGINT arrives, Stop
// is called, or a listener fails.
//
// # Graceful Shutdown
//
// The shutdown process:
//  1. The data plane stops accepting connections and drains in-flight
//     requests (up to proxy.shutdown_timeout)
//  2. The control plane shuts down after the data plane, so state stays
//     readable while traffic finishes
//  3. Remaining connections are forced closed when the timeout expires
//
// # Middleware Chain
//
// Data-plane requests pass through, outermost first:
//  1. Recovery: recovers from panics and returns a JSON 500
//  2. Logging: logs request/response details
//  3. RequestID: assigns or propagates X-Request-ID
//
// The control plane carries Recovery and RequestID but no request logging;
// the TUI polls it continuously.
//
// # Timeouts
//
// The data plane sets only read_header_timeout and idle_timeout. Proxied
// request and response bodies may legitimately stream for minutes, so no
// whole-request read or write timeout is applied; the forwarder's
// upstream_timeout bounds each upstream attempt instead.
package server
