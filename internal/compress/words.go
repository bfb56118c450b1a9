package compress

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	paragraphBreak   = regexp.MustCompile(`\n\s*\n`)
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
)

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimateTokens gives a rough token count for English prose.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 0.75 words per token.
	tokens := int(float64(CountWords(text)) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// wordStarts returns the byte offset of every word in text, using the same
// notion of whitespace as strings.Fields.
func wordStarts(text string) []int {
	var starts []int
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	return starts
}

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	var result []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences splits on runs of sentence-ending punctuation. The
// punctuation itself is dropped.
func splitSentences(text string) []string {
	var result []string
	for _, s := range sentenceBoundary.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}
