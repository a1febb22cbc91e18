package balancer

import (
	"sync"
	"sync/atomic"

	"spyglass-hq/spyglass/pkg/routing"
)

// RoundRobinStrategy implements weighted round-robin selection. Each route
// gets its own rotation counter so interleaved traffic on other routes
// cannot skew a route's distribution.
//
// The strategy is thread-safe: counters are atomic and are reset on
// overflow to prevent unbounded growth.
type RoundRobinStrategy struct {
	// counters maps route name to its rotation counter.
	counters sync.Map // map[string]*atomic.Int64
}

// NewRoundRobinStrategy creates a round-robin strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Select picks the next upstream in the route's rotation.
//
// Algorithm:
//  1. Expand candidates into a weighted list (each upstream appears weight
//     times, in candidate order)
//  2. Take the route's counter value and increment it atomically
//  3. Index the weighted list with counter modulo list length
//
// The weighted list is rebuilt per call because the eligible candidate set
// changes as upstreams cool down and revive.
func (s *RoundRobinStrategy) Select(routeName string, candidates []*routing.Upstream) *routing.Upstream {
	if len(candidates) == 1 {
		return candidates[0]
	}

	weighted := buildWeightedList(candidates)

	counter := s.counterFor(routeName)
	count := counter.Add(1) - 1

	// Reset on overflow to keep the counter in a reasonable range.
	if count >= 1_000_000_000 {
		counter.CompareAndSwap(count+1, 0)
		count = 0
	}

	return weighted[int(count%int64(len(weighted)))]
}

// counterFor returns the rotation counter for a route, creating it on first
// use.
func (s *RoundRobinStrategy) counterFor(routeName string) *atomic.Int64 {
	if counter, ok := s.counters.Load(routeName); ok {
		return counter.(*atomic.Int64)
	}
	counter, _ := s.counters.LoadOrStore(routeName, &atomic.Int64{})
	return counter.(*atomic.Int64)
}

// buildWeightedList expands candidates so each appears weight times.
//
// Example: upstream A (weight 2), upstream B (weight 1) -> [A, A, B].
func buildWeightedList(candidates []*routing.Upstream) []*routing.Upstream {
	total := 0
	for _, upstream := range candidates {
		total += upstream.Weight
	}

	weighted := make([]*routing.Upstream, 0, total)
	for _, upstream := range candidates {
		for i := 0; i < upstream.Weight; i++ {
			weighted = append(weighted, upstream)
		}
	}
	return weighted
}

// GetName returns the strategy name.
func (s *RoundRobinStrategy) GetName() string {
	return StrategyRoundRobin
}

// Reset clears every route's rotation counter. Primarily for tests.
func (s *RoundRobinStrategy) Reset() {
	s.counters.Range(func(key, _ any) bool {
		s.counters.Delete(key)
		return true
	})
}
