// Package tier holds the subscription tiers that bound how much manuscript
// context a generation request may use.
package tier

import (
	"fmt"
	"slices"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

// Tier is one subscription level.
type Tier struct {
	Name               string              `json:"name"`
	ContextWindowWords int                 `json:"context_window_words"`
	Strategies         []compress.Strategy `json:"strategies"`
	MaxOutputTokens    int                 `json:"max_output_tokens"`
}

var (
	basicStrategies = []compress.Strategy{compress.StrategyPrecision, compress.StrategyBalanced}
	allStrategies   = []compress.Strategy{compress.StrategyPrecision, compress.StrategyBalanced, compress.StrategyExtended}
)

// Ordered by context window.
var tiers = []Tier{
	{Name: "free", ContextWindowWords: 4000, Strategies: basicStrategies, MaxOutputTokens: 1024},
	{Name: "starter", ContextWindowWords: 8000, Strategies: basicStrategies, MaxOutputTokens: 2048},
	{Name: "pro", ContextWindowWords: 16000, Strategies: allStrategies, MaxOutputTokens: 4096},
	{Name: "unlimited", ContextWindowWords: 32000, Strategies: allStrategies, MaxOutputTokens: 8192},
}

// Lookup returns the tier with the given name.
func Lookup(name string) (Tier, error) {
	for _, t := range tiers {
		if t.Name == name {
			return t.clone(), nil
		}
	}
	return Tier{}, fmt.Errorf("unknown tier %q", name)
}

// All returns every tier, smallest context window first.
func All() []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[i] = t.clone()
	}
	return out
}

// Allows reports whether the tier may use strategy.
func (t Tier) Allows(s compress.Strategy) bool {
	return slices.Contains(t.Strategies, s)
}

// Clamp returns s when the tier allows it and the balanced strategy otherwise.
func (t Tier) Clamp(s compress.Strategy) compress.Strategy {
	if t.Allows(s) {
		return s
	}
	return compress.StrategyBalanced
}

func (t Tier) clone() Tier {
	t.Strategies = slices.Clone(t.Strategies)
	return t
}
