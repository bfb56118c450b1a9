package compress

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var importanceMarker = regexp.MustCompile(`(?i)\b(important|key|main|central|crucial|significant|major|decided|realized|discovered)\b`)

const (
	minSentenceRunes      = 20
	maxImportantSentences = 3
)

// GenerateSummary builds an extractive summary: the first sentence, up to
// three important middle sentences, and the last sentence, joined with ". ".
// Only sentences longer than 20 characters count. Summaries longer than
// maxWords are cut and end in "...". Returns "" when nothing qualifies.
func GenerateSummary(text string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}

	var sentences []string
	for _, s := range splitSentences(text) {
		if utf8.RuneCountInString(s) > minSentenceRunes {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return ""
	}

	selected := []string{sentences[0]}
	if len(sentences) > 1 {
		important := 0
		for _, s := range sentences[1 : len(sentences)-1] {
			if important == maxImportantSentences {
				break
			}
			if importanceMarker.MatchString(s) {
				selected = append(selected, s)
				important++
			}
		}
		selected = append(selected, sentences[len(sentences)-1])
	}

	summary := strings.Join(selected, ". ") + "."
	words := strings.Fields(summary)
	if len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return summary
}
