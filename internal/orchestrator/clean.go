package orchestrator

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/auto-codex/internal/artifacts"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/plan"
)

// CleanResult reports what Clean removed.
type CleanResult struct {
	Worktrees []string
	Branches  []string
}

// Clean removes every worktree and branch belonging to a run.
// It is the only reaper: the run lifecycle itself never removes worktrees
// or branches. Re-running clean after success is a no-op and does not error.
func Clean(g git.Runner, repoRoot, runID string) (*CleanResult, error) {
	paths := artifacts.NewRun(repoRoot, runID)
	result := &CleanResult{}

	taskIDs := map[string]bool{}
	if entries, err := os.ReadDir(paths.WorktreesDir()); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				taskIDs[e.Name()] = true
			}
		}
	}
	// A crashed run may have lost worktrees but kept branches; pick up the
	// task ids from the plan document as well.
	if data, err := os.ReadFile(paths.PlanPath()); err == nil {
		if p, err := plan.Parse(data); err == nil {
			for _, id := range p.Order {
				taskIDs[id] = true
			}
		}
	}

	ids := make([]string, 0, len(taskIDs))
	for id := range taskIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var grp errgroup.Group
	grp.SetLimit(4)
	removed := make([]string, len(ids))
	for i, id := range ids {
		wtPath := paths.WorktreePath(id)
		grp.Go(func() error {
			if _, err := os.Stat(wtPath); os.IsNotExist(err) {
				return nil
			}
			if err := g.WorktreeRemove(wtPath); err != nil {
				// Fall back to plain removal when git lost track of it.
				if rmErr := os.RemoveAll(wtPath); rmErr != nil {
					return fmt.Errorf("remove worktree %s: %w", wtPath, err)
				}
			}
			removed[i] = wtPath
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return result, err
	}
	for _, path := range removed {
		if path != "" {
			result.Worktrees = append(result.Worktrees, path)
		}
	}

	for _, id := range ids {
		branch := plan.BranchName(runID, id)
		if err := g.BranchDelete(branch); err == nil {
			result.Branches = append(result.Branches, branch)
		}
	}

	// Drop the run's now-empty worktree directory; harmless if absent.
	_ = os.Remove(paths.WorktreesDir())

	return result, nil
}
