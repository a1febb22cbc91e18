package health

import "time"

// Status is an upstream's health state.
type Status int

const (
	// StatusHealthy means the upstream is eligible for selection.
	StatusHealthy Status = iota

	// StatusCooling means the upstream tripped its fail threshold and is
	// skipped until its cooldown expires.
	StatusCooling
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// UpstreamHealth is a point-in-time view of one upstream's health cell,
// exposed to the control plane and the TUI.
type UpstreamHealth struct {
	// URL is the upstream's identity.
	URL string `json:"url"`

	// Status is "healthy" or "cooling".
	Status string `json:"status"`

	// ConsecutiveFailures is the current failure streak.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// CooldownExpiry is when a cooling upstream becomes eligible again.
	// Zero unless Status is "cooling".
	CooldownExpiry time.Time `json:"cooldown_expiry"`
}
