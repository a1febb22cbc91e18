package proxy

import (
	"errors"
	"fmt"
	"time"

	"spyglass-hq/spyglass/pkg/balancer"
)

var (
	// ErrNoRouteMatch indicates no configured route matched the request's
	// host and path. No upstream was contacted.
	ErrNoRouteMatch = errors.New("no route matches request")

	// ErrClientCancelled indicates the client disconnected before the
	// upstream produced a response.
	ErrClientCancelled = errors.New("client cancelled request")
)

// UpstreamTimeoutError indicates the upstream did not respond within the
// configured per-attempt timeout.
type UpstreamTimeoutError struct {
	// Upstream is the URL of the upstream that timed out.
	Upstream string

	// Timeout is the configured per-attempt timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("upstream %q timed out after %s", e.Upstream, e.Timeout)
}

// UpstreamTransportError indicates the outbound attempt failed before a
// response arrived: connection refused, reset, DNS failure, or a broken
// connection mid-request.
type UpstreamTransportError struct {
	// Upstream is the URL of the upstream that could not be reached.
	Upstream string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *UpstreamTransportError) Error() string {
	return fmt.Sprintf("upstream %q unreachable: %v", e.Upstream, e.Cause)
}

// Unwrap returns the underlying transport error.
func (e *UpstreamTransportError) Unwrap() error {
	return e.Cause
}

// HandleError converts a pipeline error into the JSON error response sent to
// the original caller. Every error the pipeline can surface maps to a
// response; unknown errors map to a generic 500.
func HandleError(err error) *ErrorResponse {
	if errors.Is(err, ErrNoRouteMatch) {
		return NewErrorResponse("no route matches the requested host and path", ErrorTypeNoRoute)
	}
	if errors.Is(err, balancer.ErrNoHealthyUpstream) {
		return NewErrorResponse("no healthy upstream available for this route", ErrorTypeNoHealthyUpstream)
	}

	var timeoutErr *UpstreamTimeoutError
	if errors.As(err, &timeoutErr) {
		return NewErrorResponse(
			fmt.Sprintf("upstream did not respond within %s", timeoutErr.Timeout),
			ErrorTypeUpstreamTimeout,
		)
	}

	var transportErr *UpstreamTransportError
	if errors.As(err, &transportErr) {
		return NewErrorResponse("upstream is unreachable", ErrorTypeUpstreamUnreachable)
	}

	return NewErrorResponse("an internal error occurred", ErrorTypeServerError)
}
