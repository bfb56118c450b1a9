// Package compress shrinks long manuscripts into a word-budgeted context for
// text generation, keeping the most recent prose verbatim and distilling the
// rest.
package compress

import "strings"

// DefaultRecentWords is how many trailing words Compress keeps verbatim when
// the caller has no better figure.
const DefaultRecentWords = 2000

// EarlierContentMarker separates the distilled older text from the verbatim
// recent text.
const EarlierContentMarker = "[... earlier content ...]"

// Result describes one compression. Lengths are word counts.
type Result struct {
	Compressed        string   `json:"compressed"`
	OriginalLength    int      `json:"original_length"`
	CompressedLength  int      `json:"compressed_length"`
	CompressionRatio  float64  `json:"compression_ratio"`
	PreservedSections []string `json:"preserved_sections"`
}

// Rewritten reports whether the text was actually compressed.
func (r Result) Rewritten() bool {
	return len(r.PreservedSections) > 0
}

// Compress returns fullContext unchanged when it fits in maxWords. Otherwise
// the last recentWords words are kept (joined by single spaces) and the text
// before them is reduced with ExtractKeyInformation to whatever budget is
// left. The result can exceed maxWords when recentWords alone does.
func Compress(fullContext string, maxWords, recentWords int) Result {
	words := strings.Fields(fullContext)
	total := len(words)
	if total == 0 || total <= maxWords {
		return unchanged(fullContext, total)
	}

	recentWords = min(max(recentWords, 0), total)
	split := total - recentWords

	older := fullContext
	if split < total {
		older = fullContext[:wordStarts(fullContext)[split]]
	}
	recent := strings.Join(words[split:], " ")

	compressedOlder := ExtractKeyInformation(older, max(maxWords-recentWords, 0))
	compressed := compressedOlder + "\n\n" + EarlierContentMarker + "\n\n" + recent
	compressedLength := CountWords(compressed)

	return Result{
		Compressed:        compressed,
		OriginalLength:    total,
		CompressedLength:  compressedLength,
		CompressionRatio:  float64(compressedLength) / float64(total),
		PreservedSections: []string{compressedOlder, recent},
	}
}

func unchanged(text string, words int) Result {
	return Result{
		Compressed:        text,
		OriginalLength:    words,
		CompressedLength:  words,
		CompressionRatio:  1,
		PreservedSections: []string{},
	}
}
