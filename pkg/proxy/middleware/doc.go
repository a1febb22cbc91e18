// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware wrapped around both the proxy listener
// and the control listener: request id generation, structured request
// logging, and panic recovery.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = Recovery(Logging(RequestID(handler)))
//
// Order (innermost to outermost):
//  1. RequestID: generate and propagate a request id
//  2. Logging: log request/response details
//  3. Recovery: recover from panics
//
// # Request ID
//
// RequestIDMiddleware assigns each request a UUID, honoring a client-supplied
// X-Request-ID header when present:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The request id is added to the context, included in response headers, and
// attached to all request logs.
//
// # Logging
//
// LoggingMiddleware uses structured logging (log/slog) to record request
// details:
//
//	{
//	  "time": "2026-08-21T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/api/orders",
//	  "status": 200,
//	  "latency_ms": 12,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
//
// # Recovery
//
// RecoveryMiddleware catches panics in handlers, logs the stack trace, and
// answers with HTTP 500. Internal details never reach the client.
package middleware
