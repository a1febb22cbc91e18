package routing

import (
	"fmt"
	"net/url"
)

// Table is an immutable, ordered collection of routes. Build one with
// NewTable; Match may then be called concurrently from any number of
// goroutines.
type Table struct {
	routes []*Route
}

// NewTable validates the given routes and builds a table over them. The
// routes are evaluated by Match in the order given. Each upstream's URL is
// parsed once here; the parsed form is available via Upstream.Target.
func NewTable(routes []*Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	for _, route := range routes {
		if len(route.Hosts) == 0 {
			return nil, fmt.Errorf("route %q: %w", route.Name, ErrNoHosts)
		}
		if len(route.PathPrefix) == 0 || route.PathPrefix[0] != '/' {
			return nil, fmt.Errorf("route %q: %w", route.Name, ErrInvalidPathPrefix)
		}
		if len(route.Upstreams) == 0 {
			return nil, fmt.Errorf("route %q: %w", route.Name, ErrNoUpstreams)
		}

		for _, upstream := range route.Upstreams {
			target, err := url.Parse(upstream.URL)
			if err != nil || !target.IsAbs() || target.Host == "" ||
				(target.Scheme != "http" && target.Scheme != "https") {
				return nil, fmt.Errorf("route %q: upstream %q: %w",
					route.Name, upstream.URL, ErrInvalidUpstreamURL)
			}
			if upstream.Weight < 1 {
				return nil, fmt.Errorf("route %q: upstream %q: %w",
					route.Name, upstream.URL, ErrInvalidWeight)
			}
			if upstream.FailThreshold < 1 {
				return nil, fmt.Errorf("route %q: upstream %q: %w",
					route.Name, upstream.URL, ErrInvalidFailThreshold)
			}
			if upstream.Cooldown <= 0 {
				return nil, fmt.Errorf("route %q: upstream %q: %w",
					route.Name, upstream.URL, ErrInvalidCooldown)
			}
			upstream.target = target
		}
	}

	return &Table{routes: routes}, nil
}

// Match returns the first route whose host list and path prefix both match
// the request, or nil when no route matches. It is deterministic and
// side-effect-free.
func (t *Table) Match(host, path string) *Route {
	host = hostOnly(host)
	for _, route := range t.routes {
		if !matchPath(route.PathPrefix, path) {
			continue
		}
		for _, pattern := range route.Hosts {
			if matchHost(pattern, host) {
				return route
			}
		}
	}
	return nil
}

// Routes returns the table's routes in match order. Callers must not modify
// the returned slice or the routes it points to.
func (t *Table) Routes() []*Route {
	return t.routes
}

// Upstreams returns every upstream in the table, deduplicated by URL, in
// first-appearance order. Used to register health cells and to prune idle
// connection pools after a reload.
func (t *Table) Upstreams() []*Upstream {
	seen := make(map[string]bool)
	var upstreams []*Upstream
	for _, route := range t.routes {
		for _, upstream := range route.Upstreams {
			if seen[upstream.URL] {
				continue
			}
			seen[upstream.URL] = true
			upstreams = append(upstreams, upstream)
		}
	}
	return upstreams
}
