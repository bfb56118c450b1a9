package versions

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/merge"
)

// ErrNoCommonAncestor is returned when two branches share no history.
var ErrNoCommonAncestor = errors.New("branches have no common ancestor")

// mergePlan holds the three sides of a branch merge.
type mergePlan struct {
	base, local, remote Content
	baseHash            plumbing.Hash
	targetHead          plumbing.Hash
	sourceHead          plumbing.Hash
}

// upToDate reports whether target already contains source.
func (p mergePlan) upToDate() bool {
	return p.baseHash == p.sourceHead
}

// MergeBase returns the content of the best common ancestor of two branches.
func (s *Service) MergeBase(projectID, source, target string) (Content, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return Content{}, err
	}
	plan, err := planMerge(repo, source, target)
	if err != nil {
		return Content{}, err
	}
	return plan.base, nil
}

// PreviewMerge merges source into target without committing. The target
// head is the local side and the source head the remote side.
func (s *Service) PreviewMerge(projectID, source, target string, strategy merge.Strategy) (merge.MergeResult, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return merge.MergeResult{}, err
	}
	plan, err := planMerge(repo, source, target)
	if err != nil {
		return merge.MergeResult{}, err
	}
	return merge.MergeWith(strategy, plan.base.Body, plan.local.Body, plan.remote.Body), nil
}

// MergeBranch merges source into target and records a merge commit on
// target. The returned commit is nil when nothing was committed: either
// target already contains source, or the merge conflicts and no resolutions
// were given.
func (s *Service) MergeBranch(projectID, source, target string, strategy merge.Strategy, resolutions []merge.ConflictResolution, author, message string) (merge.MergeResult, *CommitInfo, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return merge.MergeResult{}, nil, err
	}
	plan, err := planMerge(repo, source, target)
	if err != nil {
		return merge.MergeResult{}, nil, err
	}

	result := merge.MergeWith(strategy, plan.base.Body, plan.local.Body, plan.remote.Body)
	if plan.upToDate() {
		return result, nil, nil
	}
	body := result.Merged
	if result.HasConflicts {
		if len(resolutions) == 0 {
			return result, nil, nil
		}
		body = merge.ApplyConflictResolutions(result, resolutions)
	}

	if message == "" {
		message = fmt.Sprintf("Merge branch '%s' into %s", source, target)
	}
	merged := Content{Title: mergeTitle(plan), Body: body}
	hash, err := commitTo(repo, target, merged, author, message, []plumbing.Hash{plan.sourceHead})
	if err != nil {
		return merge.MergeResult{}, nil, err
	}
	info, err := commitInfo(repo, hash)
	if err != nil {
		return merge.MergeResult{}, nil, err
	}
	return result, &info, nil
}

func planMerge(repo *git.Repository, source, target string) (mergePlan, error) {
	sourceHead, err := branchHead(repo, source)
	if err != nil {
		return mergePlan{}, err
	}
	targetHead, err := branchHead(repo, target)
	if err != nil {
		return mergePlan{}, err
	}
	sc, err := repo.CommitObject(sourceHead)
	if err != nil {
		return mergePlan{}, fmt.Errorf("load source commit: %w", err)
	}
	tc, err := repo.CommitObject(targetHead)
	if err != nil {
		return mergePlan{}, fmt.Errorf("load target commit: %w", err)
	}

	bases, err := sc.MergeBase(tc)
	if err != nil {
		return mergePlan{}, fmt.Errorf("find merge base: %w", err)
	}
	if len(bases) == 0 {
		return mergePlan{}, ErrNoCommonAncestor
	}

	plan := mergePlan{baseHash: bases[0].Hash, targetHead: targetHead, sourceHead: sourceHead}
	for _, side := range []struct {
		c   *object.Commit
		dst *Content
	}{
		{bases[0], &plan.base},
		{tc, &plan.local},
		{sc, &plan.remote},
	} {
		if *side.dst, err = readContent(side.c); err != nil {
			return mergePlan{}, err
		}
	}
	return plan, nil
}

// mergeTitle takes whichever side changed the title. When both changed it,
// the target keeps its own.
func mergeTitle(p mergePlan) string {
	if p.base.Title == p.local.Title {
		return p.remote.Title
	}
	return p.local.Title
}
