// Package balancer selects an upstream for a matched route.
//
// A Balancer filters the route's upstreams through the health tracker's
// eligibility check and hands the survivors to a Strategy. Strategies are
// pure selection algorithms: they perform no I/O, never block, and must be
// safe for concurrent use. Two strategies ship with the proxy: weighted
// random (the default) and weighted round-robin.
package balancer
