package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConflict(t *testing.T) {
	c := ConflictRange{Local: "mine", Remote: "theirs", Base: "ours"}

	assert.Equal(t, "mine", ResolveConflict(c, ResolveLocal, ""))
	assert.Equal(t, "theirs", ResolveConflict(c, ResolveRemote, "ignored"))
	assert.Equal(t, "edited", ResolveConflict(c, ResolveCustom, "edited"))
	assert.Equal(t, "mine", ResolveConflict(c, ResolveCustom, ""), "custom without text falls back to local")
	assert.Equal(t, "mine", ResolveConflict(c, Resolution("base"), "x"), "unknown resolution falls back to local")
}

func twoConflicts(t *testing.T) MergeResult {
	t.Helper()
	r := MergeWith(StrategyLines, "a\nb\nc\n", "A\nb\nC\n", "X\nb\nZ\n")
	require.Len(t, r.Conflicts, 2)
	return r
}

func TestApplyConflictResolutions_OrderIndependent(t *testing.T) {
	r := twoConflicts(t)

	forward := ApplyConflictResolutions(r, []ConflictResolution{
		{ConflictIndex: 0, Resolution: ResolveRemote},
		{ConflictIndex: 1, Resolution: ResolveCustom, CustomText: "Q\n"},
	})
	backward := ApplyConflictResolutions(r, []ConflictResolution{
		{ConflictIndex: 1, Resolution: ResolveCustom, CustomText: "Q\n"},
		{ConflictIndex: 0, Resolution: ResolveRemote},
	})

	assert.Equal(t, "X\nb\nQ\n", forward)
	assert.Equal(t, forward, backward)
}

func TestApplyConflictResolutions_LengthChangingReplacements(t *testing.T) {
	r := twoConflicts(t)

	got := ApplyConflictResolutions(r, []ConflictResolution{
		{ConflictIndex: 0, Resolution: ResolveCustom, CustomText: "a much longer first line\n"},
		{ConflictIndex: 1, Resolution: ResolveRemote},
	})
	assert.Equal(t, "a much longer first line\nb\nZ\n", got)
}

func TestApplyConflictResolutions_SkipsOutOfRange(t *testing.T) {
	r := twoConflicts(t)

	got := ApplyConflictResolutions(r, []ConflictResolution{
		{ConflictIndex: -1, Resolution: ResolveRemote},
		{ConflictIndex: 2, Resolution: ResolveRemote},
	})
	assert.Equal(t, r.Merged, got)
}

func TestApplyConflictResolutions_LastDuplicateWins(t *testing.T) {
	r := twoConflicts(t)

	got := ApplyConflictResolutions(r, []ConflictResolution{
		{ConflictIndex: 0, Resolution: ResolveRemote},
		{ConflictIndex: 0, Resolution: ResolveCustom, CustomText: "kept\n"},
	})
	assert.Equal(t, "kept\nb\nC\n", got)
}

func TestApplyConflictResolutions_RemoteLongerThanLocal(t *testing.T) {
	r := MergeWith(StrategyAligned, "abc", "xbc", "yyyy")
	require.Len(t, r.Conflicts, 1)
	assert.Equal(t, 4, r.Conflicts[0].End)

	got := ApplyConflictResolutions(r, []ConflictResolution{{ConflictIndex: 0, Resolution: ResolveRemote}})
	assert.Equal(t, "yyyy", got)
}

func TestApplyConflictResolutions_NoResolutions(t *testing.T) {
	r := twoConflicts(t)
	assert.Equal(t, r.Merged, ApplyConflictResolutions(r, nil))
}
