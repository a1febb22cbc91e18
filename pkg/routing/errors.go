package routing

import "errors"

// Table construction errors, checkable with errors.Is(). NewTable wraps each
// with the offending route's name.
var (
	// ErrNoRoutes is returned when a table is built with an empty route list.
	ErrNoRoutes = errors.New("route table has no routes")

	// ErrNoHosts is returned when a route has an empty host pattern list.
	ErrNoHosts = errors.New("route has no host patterns")

	// ErrNoUpstreams is returned when a route has an empty upstream list.
	ErrNoUpstreams = errors.New("route has no upstreams")

	// ErrInvalidPathPrefix is returned when a route's path prefix does not
	// start with "/".
	ErrInvalidPathPrefix = errors.New("path prefix must start with \"/\"")

	// ErrInvalidUpstreamURL is returned when an upstream URL does not parse
	// as an absolute http or https URL.
	ErrInvalidUpstreamURL = errors.New("invalid upstream URL")

	// ErrInvalidWeight is returned when an upstream weight is less than 1.
	ErrInvalidWeight = errors.New("upstream weight must be >= 1")

	// ErrInvalidFailThreshold is returned when an upstream fail threshold
	// is less than 1.
	ErrInvalidFailThreshold = errors.New("upstream fail threshold must be >= 1")

	// ErrInvalidCooldown is returned when an upstream cooldown is not a
	// positive duration.
	ErrInvalidCooldown = errors.New("upstream cooldown must be positive")
)
