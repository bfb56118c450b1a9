package compress

import (
	"regexp"
	"strings"
)

var (
	characterMarker = regexp.MustCompile(`(?i)\b(was|had|named|called|protagonist|villain)\b`)
	settingMarker   = regexp.MustCompile(`(?i)\b(where|place|location|city|forest|mountain|sea)\b`)
	plotMarker      = regexp.MustCompile(`(?i)\b(decided|realized|discovered|learned)\b`)
	dialogueMarker  = regexp.MustCompile(`["“”「」『』]`)
)

const (
	minParagraphScore = 2
	// Below this share of the budget a summary of the text is prepended.
	summaryThreshold = 0.8
)

func scoreParagraph(p string) int {
	score := 0
	if characterMarker.MatchString(p) {
		score += 3
	}
	if settingMarker.MatchString(p) {
		score += 2
	}
	if plotMarker.MatchString(p) {
		score += 2
	}
	if dialogueMarker.MatchString(p) {
		score++
	}
	return score
}

// ExtractKeyInformation keeps the paragraphs of text that mention characters,
// settings, plot turns or dialogue, in their original order, up to maxWords
// words. A paragraph that would overflow the budget is skipped whole. When
// the kept paragraphs use less than 80% of the budget, a "[Summary: ...]"
// block built from half the remaining budget is prepended.
func ExtractKeyInformation(text string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}

	var kept []string
	used := 0
	for _, p := range splitParagraphs(text) {
		if used >= maxWords {
			break
		}
		if scoreParagraph(p) < minParagraphScore {
			continue
		}
		n := CountWords(p)
		if used+n > maxWords {
			continue
		}
		kept = append(kept, p)
		used += n
	}

	out := strings.Join(kept, "\n\n")
	if float64(used) >= summaryThreshold*float64(maxWords) {
		return out
	}
	summary := GenerateSummary(text, (maxWords-used)/2)
	if summary == "" {
		return out
	}
	block := "[Summary: " + summary + "]"
	if out == "" {
		return block
	}
	return block + "\n\n" + out
}
