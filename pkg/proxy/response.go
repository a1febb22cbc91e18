package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body written for requests the proxy could not
// complete. Responses relayed from an upstream pass through untouched; this
// shape appears only when the proxy itself answers.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`
}

// Error type constants for proxy-originated responses.
const (
	// ErrorTypeNoRoute indicates no route matched the request (404).
	ErrorTypeNoRoute = "no_route_match"

	// ErrorTypeNoHealthyUpstream indicates the matched route has no
	// eligible upstream (503).
	ErrorTypeNoHealthyUpstream = "no_healthy_upstream"

	// ErrorTypeUpstreamTimeout indicates the upstream attempt timed out (504).
	ErrorTypeUpstreamTimeout = "upstream_timeout"

	// ErrorTypeUpstreamUnreachable indicates a transport-level failure (502).
	ErrorTypeUpstreamUnreachable = "upstream_unreachable"

	// ErrorTypeServerError indicates an internal proxy error (500).
	ErrorTypeServerError = "server_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
		},
	}
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeNoRoute:
		return http.StatusNotFound
	case ErrorTypeNoHealthyUpstream:
		return http.StatusServiceUnavailable
	case ErrorTypeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeUpstreamUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSONResponse writes a JSON response with the given status code. It
// sets the content-type header and reports encoding failures.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes an error response with the status code derived
// from its error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}
