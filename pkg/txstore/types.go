package txstore

import (
	"net/http"
	"time"
)

// Outcome classifies how a transaction ended.
type Outcome string

const (
	// OutcomeSuccess covers every exchange where an upstream answered with a
	// status below 500, including 4xx responses.
	OutcomeSuccess Outcome = "success"

	// OutcomeUpstreamError covers 5xx responses, transport failures, and
	// upstream timeouts.
	OutcomeUpstreamError Outcome = "upstream_error"

	// OutcomeNoRouteMatch means no configured route matched the request.
	OutcomeNoRouteMatch Outcome = "no_route_match"

	// OutcomeNoHealthyUpstream means the matched route had no upstream
	// eligible to receive traffic.
	OutcomeNoHealthyUpstream Outcome = "no_healthy_upstream"

	// OutcomeClientCancelled means the client disconnected before a response
	// was committed.
	OutcomeClientCancelled Outcome = "client_cancelled"
)

// Transaction is the immutable record of one proxied exchange. Values are
// copied out of the store, so callers may retain them freely.
type Transaction struct {
	// Identity
	ID       uint64 `json:"id"`
	ReplayOf uint64 `json:"replay_of,omitempty"`

	// Timestamps
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationMillis int64     `json:"duration_ms"`

	// Request
	Method string `json:"method"`
	Host   string `json:"host"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`

	// Routing
	Route    string `json:"route,omitempty"`
	Upstream string `json:"upstream,omitempty"`

	// Result
	Outcome Outcome `json:"outcome"`
	Status  int     `json:"status"`
	Error   string  `json:"error,omitempty"`

	// Sizes
	RequestBytes  int64 `json:"request_bytes"`
	ResponseBytes int64 `json:"response_bytes"`

	// Replayable reports whether the full request body was captured. Bodies
	// that overflowed the capture limit cannot be reissued faithfully.
	Replayable bool `json:"replayable"`

	// Retained for replay, never serialized.
	header http.Header
	body   []byte
}

// Header returns the inbound request headers captured at admission. The
// returned map must not be modified.
func (t *Transaction) Header() http.Header {
	return t.header
}

// Stats is a point-in-time snapshot of the store's aggregate counters.
type Stats struct {
	TotalRequests      int64 `json:"total_requests"`
	ActiveRequests     int64 `json:"active_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`
	CancelledRequests  int64 `json:"cancelled_requests"`
	RequestBytes       int64 `json:"request_bytes"`
	ResponseBytes      int64 `json:"response_bytes"`
}
