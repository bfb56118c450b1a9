// Package merge reconciles two edited copies of a text that diverged from a
// common ancestor.
package merge

import "fmt"

// ConflictRange is one region where local and remote both diverge from base
// and from each other. Start and End are rune offsets into MergeResult.Merged.
type ConflictRange struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
	Base   string `json:"base"`
}

// MergeResult is the outcome of one merge. Conflicting regions are filled
// with the local variant until they are resolved.
type MergeResult struct {
	Merged       string          `json:"merged"`
	Conflicts    []ConflictRange `json:"conflicts"`
	HasConflicts bool            `json:"has_conflicts"`
}

// Strategy selects the algorithm used when no fast path applies.
type Strategy string

const (
	// StrategyLines runs a line-granular diff3.
	StrategyLines Strategy = "lines"
	// StrategyAligned walks the three texts rune by rune with aligned cursors.
	// Only suitable for edits that keep surrounding text at the same offsets.
	StrategyAligned Strategy = "aligned"
)

// DefaultStrategy is used by Merge.
const DefaultStrategy = StrategyLines

// ParseStrategy maps a name to a Strategy. The empty string selects the default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return DefaultStrategy, nil
	case StrategyLines, StrategyAligned:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown merge strategy: %q", s)
	}
}

// Merge combines local and remote edits of base using the default strategy.
func Merge(base, local, remote string) MergeResult {
	return MergeWith(DefaultStrategy, base, local, remote)
}

// MergeWith combines local and remote edits of base. When two of the three
// inputs are equal the other one is returned verbatim without conflicts.
func MergeWith(strategy Strategy, base, local, remote string) MergeResult {
	switch {
	case base == local:
		return clean(remote)
	case base == remote:
		return clean(local)
	case local == remote:
		return clean(local)
	}

	if strategy == StrategyAligned {
		return mergeAligned(base, local, remote)
	}
	return mergeLines(base, local, remote)
}

func clean(text string) MergeResult {
	return MergeResult{Merged: text, Conflicts: []ConflictRange{}}
}

func result(merged string, conflicts []ConflictRange) MergeResult {
	return MergeResult{
		Merged:       merged,
		Conflicts:    conflicts,
		HasConflicts: len(conflicts) > 0,
	}
}
