package config

import (
	"spyglass-hq/spyglass/pkg/routing"
)

// RouteTable builds the immutable routing table described by the
// configuration's route list. The route and upstream values are copied, so
// later mutation of the Config does not affect a table already built from
// it. A configuration that passed Validate builds without error.
func (c *Config) RouteTable() (*routing.Table, error) {
	routes := make([]*routing.Route, 0, len(c.Routes))
	for i := range c.Routes {
		rc := &c.Routes[i]
		route := &routing.Route{
			Name:          rc.Name,
			Hosts:         append([]string(nil), rc.Hosts...),
			PathPrefix:    rc.PathPrefix,
			StripPrefix:   rc.StripPrefix,
			RewritePrefix: rc.RewritePrefix,
			Upstreams:     make([]*routing.Upstream, 0, len(rc.Upstreams)),
		}
		for _, uc := range rc.Upstreams {
			route.Upstreams = append(route.Upstreams, &routing.Upstream{
				URL:           uc.URL,
				Weight:        uc.Weight,
				FailThreshold: uc.FailThreshold,
				Cooldown:      uc.Cooldown,
			})
		}
		routes = append(routes, route)
	}
	return routing.NewTable(routes)
}
