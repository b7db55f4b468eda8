// Package artifacts owns the per-run artifact layout under .auto-codex/.
// Every stable path is computed here; nothing else assembles artifact paths.
package artifacts

import "path/filepath"

// Run locates every artifact of a single run.
type Run struct {
	// RepoRoot is the repository root the run operates on.
	RepoRoot string
	// RunID is the run identifier appearing in every path and branch name.
	RunID string
}

// NewRun creates the path view for one run.
func NewRun(repoRoot, runID string) *Run {
	return &Run{RepoRoot: repoRoot, RunID: runID}
}

// Dir returns .auto-codex/runs/<RunId>.
func (r *Run) Dir() string {
	return filepath.Join(r.RepoRoot, ".auto-codex", "runs", r.RunID)
}

// PlanPath returns the plan document path.
func (r *Run) PlanPath() string { return filepath.Join(r.Dir(), "plan.json") }

// PlanLogPath returns the planning invocation's log path.
func (r *Run) PlanLogPath() string { return filepath.Join(r.Dir(), "plan.log") }

// TasksDir returns the rendered task document directory.
func (r *Run) TasksDir() string { return filepath.Join(r.Dir(), "tasks") }

// GoalPath returns the goal document path.
func (r *Run) GoalPath() string { return filepath.Join(r.TasksDir(), "GOAL.md") }

// TaskDocPath returns the rendered prompt document for a task.
func (r *Run) TaskDocPath(taskID string) string {
	return filepath.Join(r.TasksDir(), taskID+".md")
}

// ResultPath returns the executor result document for a task.
func (r *Run) ResultPath(taskID string) string {
	return filepath.Join(r.Dir(), "results", taskID+".json")
}

// LogPath returns the log file for a task.
func (r *Run) LogPath(taskID string) string {
	return filepath.Join(r.Dir(), "logs", taskID+".log")
}

// DepMergeDir returns the dependency pre-merge directory for a task.
func (r *Run) DepMergeDir(taskID string) string {
	return filepath.Join(r.Dir(), "dep-merges", taskID)
}

// DepMergeContextPath returns the context document for one dependency merge.
func (r *Run) DepMergeContextPath(taskID, depID string) string {
	return filepath.Join(r.DepMergeDir(taskID), "context-"+depID+".md")
}

// DepMergeResultPath returns the executor result for one dependency merge.
func (r *Run) DepMergeResultPath(taskID, depID string) string {
	return filepath.Join(r.DepMergeDir(taskID), "merge-"+depID+".json")
}

// DepMergeLogPath returns the log for one dependency merge.
func (r *Run) DepMergeLogPath(taskID, depID string) string {
	return filepath.Join(r.DepMergeDir(taskID), "merge-"+depID+".log")
}

// MergeDir returns the final-integration directory.
func (r *Run) MergeDir() string { return filepath.Join(r.Dir(), "merge") }

// MergeContextPath returns the integration context document path.
func (r *Run) MergeContextPath() string {
	return filepath.Join(r.MergeDir(), "MERGE_CONTEXT.md")
}

// MergeResultPath returns the executor result for one integration merge.
func (r *Run) MergeResultPath(taskID string) string {
	return filepath.Join(r.MergeDir(), "merge-"+taskID+".json")
}

// MergeLogPath returns the log for one integration merge.
func (r *Run) MergeLogPath(taskID string) string {
	return filepath.Join(r.MergeDir(), "merge-"+taskID+".log")
}

// SummaryPath returns the run summary path.
func (r *Run) SummaryPath() string { return filepath.Join(r.Dir(), "SUMMARY.md") }

// WorktreesDir returns .auto-codex/worktrees/<RunId>.
func (r *Run) WorktreesDir() string {
	return filepath.Join(r.RepoRoot, ".auto-codex", "worktrees", r.RunID)
}

// WorktreePath returns a task's isolated working copy path.
func (r *Run) WorktreePath(taskID string) string {
	return filepath.Join(r.WorktreesDir(), taskID)
}
