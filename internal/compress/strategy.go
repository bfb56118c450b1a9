package compress

import (
	"fmt"
	"math"
)

// Strategy picks how SelectSmartContext spends the word budget.
type Strategy string

const (
	StrategyPrecision Strategy = "precision"
	StrategyBalanced  Strategy = "balanced"
	StrategyExtended  Strategy = "extended"
)

// DefaultStrategy is used when callers do not name one.
const DefaultStrategy = StrategyBalanced

const (
	extendedTrigger     = 1.5
	extendedRecentShare = 0.6
)

// ParseStrategy maps a name to a Strategy. The empty string selects
// DefaultStrategy.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case "":
		return DefaultStrategy, nil
	case StrategyPrecision, StrategyBalanced, StrategyExtended:
		return s, nil
	default:
		return "", fmt.Errorf("unknown context strategy %q", name)
	}
}

// SelectSmartContext compresses fullContext for a given strategy. The
// extended strategy, on text longer than 1.5x maxWords, keeps 60% of the
// budget as verbatim recent text. Everything else returns the text unchanged
// when it fits and otherwise falls back to Compress with DefaultRecentWords.
//
// characters is accepted for API compatibility and currently unused.
func SelectSmartContext(fullContext string, maxWords int, characters []string, strategy Strategy) Result {
	words := CountWords(fullContext)
	if strategy == StrategyExtended && float64(words) > extendedTrigger*float64(maxWords) {
		recent := int(math.Floor(float64(maxWords) * extendedRecentShare))
		return Compress(fullContext, maxWords, recent)
	}
	if words <= maxWords {
		return unchanged(fullContext, words)
	}
	return Compress(fullContext, maxWords, DefaultRecentWords)
}
