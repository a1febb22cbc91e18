package balancer

import (
	"errors"
	"fmt"
	"time"

	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/routing"
)

// Selection errors, checkable with errors.Is().
var (
	// ErrNoHealthyUpstream is returned when every upstream of a route is
	// cooling down at selection time.
	ErrNoHealthyUpstream = errors.New("no healthy upstream available")

	// ErrUnknownStrategy is returned when an unrecognized strategy name is
	// configured.
	ErrUnknownStrategy = errors.New("unknown balancing strategy")
)

// Strategy is the selection algorithm behind a Balancer. Implementations
// receive only the eligible candidates of a route and must be thread-safe:
// Select is called concurrently from every request-handling goroutine.
type Strategy interface {
	// Select picks one upstream from candidates. The candidates slice is
	// never empty and is in route configuration order. The route name keys
	// any per-route state the strategy keeps.
	Select(routeName string, candidates []*routing.Upstream) *routing.Upstream

	// GetName returns the strategy name for logging and configuration.
	GetName() string

	// Reset clears the strategy's internal state. Primarily for tests.
	Reset()
}

// Strategy names accepted in configuration.
const (
	StrategyWeightedRandom = "weighted-random"
	StrategyRoundRobin     = "round-robin"
)

// NewStrategy builds the named strategy, defaulting to weighted-random for
// an empty name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyWeightedRandom:
		return NewWeightedRandomStrategy(), nil
	case StrategyRoundRobin:
		return NewRoundRobinStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Balancer pairs a health tracker with a selection strategy.
type Balancer struct {
	tracker  *health.Tracker
	strategy Strategy
}

// New creates a Balancer that consults tracker for eligibility and selects
// with the given strategy.
func New(tracker *health.Tracker, strategy Strategy) *Balancer {
	return &Balancer{tracker: tracker, strategy: strategy}
}

// Select returns one eligible upstream of the route, or ErrNoHealthyUpstream
// when the eligible set is empty. Ineligible upstreams consume no weight
// share: selection probability is proportional to weight among the eligible
// candidates only. Select performs no I/O and does not block.
func (b *Balancer) Select(route *routing.Route, now time.Time) (*routing.Upstream, error) {
	candidates := make([]*routing.Upstream, 0, len(route.Upstreams))
	for _, upstream := range route.Upstreams {
		if b.tracker.IsEligible(upstream, now) {
			candidates = append(candidates, upstream)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoHealthyUpstream
	}
	return b.strategy.Select(route.Name, candidates), nil
}

// Strategy returns the balancer's strategy.
func (b *Balancer) Strategy() Strategy {
	return b.strategy
}
