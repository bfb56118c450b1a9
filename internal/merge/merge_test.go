package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_FastPaths(t *testing.T) {
	texts := []string{"", "The cat sat.", "line one\nline two\n", "雪が降っていた。"}

	for _, strategy := range []Strategy{StrategyLines, StrategyAligned} {
		for _, b := range texts {
			for _, x := range texts {
				got := MergeWith(strategy, b, b, x)
				assert.Equal(t, x, got.Merged, "base == local should yield remote")
				assert.Empty(t, got.Conflicts)
				assert.False(t, got.HasConflicts)

				got = MergeWith(strategy, b, x, b)
				assert.Equal(t, x, got.Merged, "base == remote should yield local")
				assert.False(t, got.HasConflicts)

				got = MergeWith(strategy, b, x, x)
				assert.Equal(t, x, got.Merged, "converged sides should yield the common text")
				assert.False(t, got.HasConflicts)
			}
		}
	}
}

func TestMerge_FastPathConflictsNotNil(t *testing.T) {
	got := Merge("", "", "")
	require.NotNil(t, got.Conflicts)
	assert.Empty(t, got.Conflicts)
}

func TestMerge_BothSidesEditSameSentence(t *testing.T) {
	got := Merge("The cat sat.", "The dog sat.", "The cat ran.")

	require.True(t, got.HasConflicts)
	require.Len(t, got.Conflicts, 1)
	assert.Contains(t, got.Merged, "The dog sat.")

	c := got.Conflicts[0]
	assert.Equal(t, 0, c.Start)
	assert.Equal(t, 12, c.End)
	assert.Equal(t, "The dog sat.", c.Local)
	assert.Equal(t, "The cat ran.", c.Remote)
	assert.Equal(t, "The cat sat.", c.Base)
}

func TestMergeLines_IndependentEditsMergeCleanly(t *testing.T) {
	base := "one\ntwo\nthree\n"
	local := "ONE\ntwo\nthree\n"
	remote := "one\ntwo\nTHREE\n"

	got := MergeWith(StrategyLines, base, local, remote)
	assert.False(t, got.HasConflicts)
	assert.Equal(t, "ONE\ntwo\nTHREE\n", got.Merged)
}

func TestMergeLines_InsertionsAndDeletions(t *testing.T) {
	base := "Chapter 1\nIt rained.\nShe waited.\nThe end.\n"
	local := "Prologue\nChapter 1\nIt rained.\nShe waited.\nThe end.\n"
	remote := "Chapter 1\nIt rained.\nThe end.\n"

	got := MergeWith(StrategyLines, base, local, remote)
	assert.False(t, got.HasConflicts)
	assert.Equal(t, "Prologue\nChapter 1\nIt rained.\nThe end.\n", got.Merged)
}

func TestMergeLines_SameEditOnBothSides(t *testing.T) {
	base := "a\nb\nc\n"
	local := "a\nB\nc\nd\n"
	remote := "a\nB\nc\n"

	got := MergeWith(StrategyLines, base, local, remote)
	assert.False(t, got.HasConflicts)
	assert.Equal(t, "a\nB\nc\nd\n", got.Merged)
}

func TestMergeLines_ConflictOffsetsPointIntoMerged(t *testing.T) {
	got := MergeWith(StrategyLines, "a\nb\nc\n", "A\nb\nC\n", "X\nb\nZ\n")

	require.Len(t, got.Conflicts, 2)
	assert.Equal(t, "A\nb\nC\n", got.Merged)

	merged := []rune(got.Merged)
	for _, c := range got.Conflicts {
		span := string(merged[c.Start : c.Start+len([]rune(c.Local))])
		assert.Equal(t, c.Local, span)
	}
	assert.Equal(t, 0, got.Conflicts[0].Start)
	assert.Equal(t, 4, got.Conflicts[1].Start)
	assert.Equal(t, "b\n", string(merged[2:4]))
}

func TestMergeAligned_PositionAlignedEdits(t *testing.T) {
	got := MergeWith(StrategyAligned, "The cat sat.", "The dog sat.", "The cat ran.")

	assert.False(t, got.HasConflicts)
	assert.Equal(t, "The dog ran.", got.Merged)
}

func TestMergeAligned_Conflict(t *testing.T) {
	got := MergeWith(StrategyAligned, "abc", "xbc", "ybc")

	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, "xbc", got.Merged)
	assert.Equal(t, ConflictRange{Start: 0, End: 3, Local: "xbc", Remote: "ybc", Base: "abc"}, got.Conflicts[0])
}

func TestMergeAligned_ConflictCappedAtHundredRunes(t *testing.T) {
	base := strings.Repeat("a", 150)
	local := "b" + strings.Repeat("a", 149)
	remote := "c" + strings.Repeat("a", 149)

	got := MergeWith(StrategyAligned, base, local, remote)

	require.Len(t, got.Conflicts, 1)
	c := got.Conflicts[0]
	assert.Len(t, []rune(c.Local), 100)
	assert.Len(t, []rune(c.Remote), 100)
	assert.Len(t, []rune(c.Base), 100)
	assert.Equal(t, 100, c.End)
	assert.Equal(t, local, got.Merged)
}

func TestMergeAligned_ExhaustedSideEmitsNothing(t *testing.T) {
	got := MergeWith(StrategyAligned, "abcd", "abXd", "abc")

	assert.False(t, got.HasConflicts)
	assert.Equal(t, "abX", got.Merged)
}

func TestMergeAligned_MultibyteText(t *testing.T) {
	got := MergeWith(StrategyAligned, "彼は走った", "彼女は走った", "彼は歩いた")

	require.True(t, got.HasConflicts)
	assert.True(t, strings.HasPrefix(got.Merged, "彼"))
	for _, c := range got.Conflicts {
		assert.LessOrEqual(t, c.End, c.Start+100)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyLines, s)

	s, err = ParseStrategy("aligned")
	require.NoError(t, err)
	assert.Equal(t, StrategyAligned, s)

	_, err = ParseStrategy("myers")
	assert.Error(t, err)
}
