// Package health tracks per-upstream failure state and cooldown windows.
//
// The tracker is passive: there is no background prober and no timer. Failures
// and successes are reported by the forwarding path after each attempt, and
// cooldown expiry is evaluated lazily when the load balancer asks about
// eligibility. Each upstream has its own synchronized cell, so health updates
// for one upstream never contend with another's.
package health
