package balancer

import (
	"math/rand/v2"

	"spyglass-hq/spyglass/pkg/routing"
)

// WeightedRandomStrategy selects an upstream at random with probability
// proportional to its weight. It keeps no state, so equal weights are
// uniform by construction regardless of configuration order.
type WeightedRandomStrategy struct{}

// NewWeightedRandomStrategy creates a weighted-random strategy.
func NewWeightedRandomStrategy() *WeightedRandomStrategy {
	return &WeightedRandomStrategy{}
}

// Select draws one candidate. Weights are validated >= 1 at table build
// time, so the total is always positive.
func (s *WeightedRandomStrategy) Select(routeName string, candidates []*routing.Upstream) *routing.Upstream {
	if len(candidates) == 1 {
		return candidates[0]
	}

	total := 0
	for _, upstream := range candidates {
		total += upstream.Weight
	}

	n := rand.IntN(total)
	for _, upstream := range candidates {
		n -= upstream.Weight
		if n < 0 {
			return upstream
		}
	}
	// Unreachable: n < total and the loop consumes exactly total.
	return candidates[len(candidates)-1]
}

// GetName returns the strategy name.
func (s *WeightedRandomStrategy) GetName() string {
	return StrategyWeightedRandom
}

// Reset is a no-op: the strategy keeps no state.
func (s *WeightedRandomStrategy) Reset() {}
