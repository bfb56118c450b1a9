package merge

// maxConflictRunes caps a single conflict region. The cap ignores word and
// sentence boundaries.
const maxConflictRunes = 100

// mergeAligned advances one cursor per text in lockstep, attributing each
// differing position to whichever side no longer matches base.
func mergeAligned(base, local, remote string) MergeResult {
	b, l, r := []rune(base), []rune(local), []rune(remote)

	merged := make([]rune, 0, max(len(l), len(r)))
	conflicts := []ConflictRange{}
	bi, li, ri := 0, 0, 0

	for bi < len(b) || li < len(l) || ri < len(r) {
		bc, bok := runeAt(b, bi)
		lc, lok := runeAt(l, li)
		rc, rok := runeAt(r, ri)
		localSame := bc == lc && bok == lok
		remoteSame := bc == rc && bok == rok

		switch {
		case localSame && remoteSame:
			if bok {
				merged = append(merged, bc)
			}
			bi, li, ri = bi+1, li+1, ri+1
		case localSame:
			if rok {
				merged = append(merged, rc)
			}
			bi, li, ri = bi+1, li+1, ri+1
		case remoteSame:
			if lok {
				merged = append(merged, lc)
			}
			bi, li, ri = bi+1, li+1, ri+1
		default:
			n := min(maxConflictRunes, max(len(l)-li, len(r)-ri, len(b)-bi))
			ls, rs, bs := window(l, li, n), window(r, ri, n), window(b, bi, n)
			start := len(merged)
			conflicts = append(conflicts, ConflictRange{
				Start:  start,
				End:    start + max(len(ls), len(rs)),
				Local:  string(ls),
				Remote: string(rs),
				Base:   string(bs),
			})
			merged = append(merged, ls...)
			bi, li, ri = bi+n, li+n, ri+n
		}
	}

	return result(string(merged), conflicts)
}

// runeAt reports the rune at i, or false once the cursor has run past the end.
func runeAt(rs []rune, i int) (rune, bool) {
	if i < 0 || i >= len(rs) {
		return 0, false
	}
	return rs[i], true
}

// window returns up to n runes starting at i, clamped to the slice.
func window(rs []rune, i, n int) []rune {
	if i >= len(rs) || n <= 0 {
		return nil
	}
	return rs[i:min(i+n, len(rs))]
}
