package merge

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// hunk is one contiguous edit relative to base: base lines
// [baseStart, baseEnd) became lines [start, end) of the edited text.
type hunk struct {
	baseStart, baseEnd int
	start, end         int
}

// mergeLines is a diff3 over lines. Hunks from the two sides that overlap or
// touch on base are grouped into one region; a region edited by both sides
// into different text becomes a conflict.
func mergeLines(base, local, remote string) MergeResult {
	dmp := diffmatchpatch.New()
	baseLines, localLines, remoteLines := splitLines(base), splitLines(local), splitLines(remote)
	lh := lineHunks(dmp, base, local)
	rh := lineHunks(dmp, base, remote)

	var out strings.Builder
	written := 0
	write := func(s string) {
		out.WriteString(s)
		written += utf8.RuneCountInString(s)
	}

	conflicts := []ConflictRange{}
	basePos := 0
	i, j := 0, 0

	for i < len(lh) || j < len(rh) {
		var lg, rg []hunk
		var start, end int
		if j >= len(rh) || (i < len(lh) && lh[i].baseStart <= rh[j].baseStart) {
			start, end = lh[i].baseStart, lh[i].baseEnd
			lg = append(lg, lh[i])
			i++
		} else {
			start, end = rh[j].baseStart, rh[j].baseEnd
			rg = append(rg, rh[j])
			j++
		}

	grow:
		for {
			switch {
			case i < len(lh) && lh[i].baseStart <= end:
				lg = append(lg, lh[i])
				end = max(end, lh[i].baseEnd)
				i++
			case j < len(rh) && rh[j].baseStart <= end:
				rg = append(rg, rh[j])
				end = max(end, rh[j].baseEnd)
				j++
			default:
				break grow
			}
		}

		write(strings.Join(baseLines[basePos:start], ""))

		localText := sideText(localLines, baseLines, lg, start, end)
		remoteText := sideText(remoteLines, baseLines, rg, start, end)
		switch {
		case len(lg) == 0:
			write(remoteText)
		case len(rg) == 0, localText == remoteText:
			write(localText)
		default:
			at := written
			conflicts = append(conflicts, ConflictRange{
				Start:  at,
				End:    at + max(utf8.RuneCountInString(localText), utf8.RuneCountInString(remoteText)),
				Local:  localText,
				Remote: remoteText,
				Base:   strings.Join(baseLines[start:end], ""),
			})
			write(localText)
		}
		basePos = end
	}
	write(strings.Join(baseLines[basePos:], ""))

	return result(out.String(), conflicts)
}

// lineHunks diffs base against edited on whole lines and returns the edits in
// base order.
func lineHunks(dmp *diffmatchpatch.DiffMatchPatch, base, edited string) []hunk {
	a, b, lines := dmp.DiffLinesToChars(base, edited)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var hunks []hunk
	var cur *hunk
	bi, ei := 0, 0
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			if cur != nil {
				hunks = append(hunks, *cur)
				cur = nil
			}
			bi += n
			ei += n
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &hunk{baseStart: bi, baseEnd: bi, start: ei, end: ei}
			}
			bi += n
			cur.baseEnd = bi
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &hunk{baseStart: bi, baseEnd: bi, start: ei, end: ei}
			}
			ei += n
			cur.end = ei
		}
	}
	if cur != nil {
		hunks = append(hunks, *cur)
	}
	return hunks
}

// sideText returns one side's text for the base region [start, end). A side
// with no hunks in the region still reads as base there.
func sideText(side, base []string, group []hunk, start, end int) string {
	if len(group) == 0 {
		return strings.Join(base[start:end], "")
	}
	first, last := group[0], group[len(group)-1]
	from := first.start - (first.baseStart - start)
	to := last.end + (end - last.baseEnd)
	return strings.Join(side[from:to], "")
}

// splitLines splits text after each newline; the final line may lack one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func countLines(text string) int {
	n := strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
