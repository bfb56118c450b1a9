package merge

import (
	"sort"
	"unicode/utf8"
)

// Resolution names the variant chosen for a conflict.
type Resolution string

const (
	ResolveLocal  Resolution = "local"
	ResolveRemote Resolution = "remote"
	ResolveCustom Resolution = "custom"
)

// ConflictResolution picks a variant for the conflict at ConflictIndex.
type ConflictResolution struct {
	ConflictIndex int        `json:"conflict_index"`
	Resolution    Resolution `json:"resolution"`
	CustomText    string     `json:"custom_text,omitempty"`
}

// ResolveConflict returns the text chosen for c. Unknown resolutions, and a
// custom resolution without text, keep the local variant.
func ResolveConflict(c ConflictRange, r Resolution, customText string) string {
	switch r {
	case ResolveRemote:
		return c.Remote
	case ResolveCustom:
		if customText != "" {
			return customText
		}
		return c.Local
	default:
		return c.Local
	}
}

// ApplyConflictResolutions replaces each resolved conflict region of
// result.Merged with the chosen text. Regions are rewritten right to left so
// the offsets of regions not yet processed stay valid; the order of
// resolutions therefore does not matter. Out-of-range indices are ignored and
// the last resolution given for an index wins.
func ApplyConflictResolutions(result MergeResult, resolutions []ConflictResolution) string {
	picked := make([]ConflictResolution, 0, len(resolutions))
	seen := make(map[int]bool, len(resolutions))
	for i := len(resolutions) - 1; i >= 0; i-- {
		res := resolutions[i]
		if res.ConflictIndex < 0 || res.ConflictIndex >= len(result.Conflicts) || seen[res.ConflictIndex] {
			continue
		}
		seen[res.ConflictIndex] = true
		picked = append(picked, res)
	}
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].ConflictIndex > picked[j].ConflictIndex
	})

	text := []rune(result.Merged)
	for _, res := range picked {
		c := result.Conflicts[res.ConflictIndex]
		start := clamp(c.Start, 0, len(text))
		end := clamp(c.Start+utf8.RuneCountInString(c.Local), start, len(text))
		replacement := []rune(ResolveConflict(c, res.Resolution, res.CustomText))

		next := make([]rune, 0, len(text)-(end-start)+len(replacement))
		next = append(next, text[:start]...)
		next = append(next, replacement...)
		next = append(next, text[end:]...)
		text = next
	}
	return string(text)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
