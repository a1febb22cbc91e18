package routing

import (
	"net/url"
	"time"
)

// Route maps a set of host patterns and a path prefix to an ordered list of
// upstreams. Routes are matched in configured order; the first match wins.
type Route struct {
	// Name identifies the route in logs, metrics, and transaction records.
	// It carries no matching semantics.
	Name string

	// Hosts contains the host patterns this route matches. A pattern is
	// either an exact host or a single-level wildcard ("*.example.org").
	Hosts []string

	// PathPrefix is the path prefix this route matches, on segment
	// boundaries. Must start with "/".
	PathPrefix string

	// StripPrefix removes the matched prefix from the outbound path.
	StripPrefix bool

	// RewritePrefix, when non-empty, is prepended to the outbound path
	// after any stripping.
	RewritePrefix string

	// Upstreams is the ordered set of backends for this route. At least
	// one is required.
	Upstreams []*Upstream
}

// Upstream is one backend target with its weight and health policy. The
// configured URL string is the upstream's identity everywhere in the system:
// health state, transaction records, and metrics are all keyed by it.
type Upstream struct {
	// URL is the base URL requests are forwarded to (scheme://host[:port]).
	URL string

	// Weight sets this upstream's share of traffic relative to the other
	// eligible upstreams of its route. Must be >= 1.
	Weight int

	// FailThreshold is the number of consecutive failures after which the
	// upstream enters cooldown. Must be >= 1.
	FailThreshold int

	// Cooldown is how long the upstream is skipped after tripping
	// FailThreshold. Must be > 0.
	Cooldown time.Duration

	target *url.URL
}

// Target returns the parsed base URL. It is set when the table containing
// the upstream is built and is never modified afterwards.
func (u *Upstream) Target() *url.URL {
	return u.target
}
