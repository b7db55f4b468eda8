package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// EnsureLayout creates the run's directory skeleton. Idempotent.
func (r *Run) EnsureLayout() error {
	dirs := []string{
		r.Dir(),
		r.TasksDir(),
		filepath.Join(r.Dir(), "results"),
		filepath.Join(r.Dir(), "logs"),
		filepath.Join(r.Dir(), "dep-merges"),
		r.MergeDir(),
		r.WorktreesDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// WriteFile writes a file under the run tree, creating parent directories.
func (r *Run) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteGoal persists the goal document.
func (r *Run) WriteGoal(goal string) error {
	doc := fmt.Sprintf("# Goal\n\n%s\n", strings.TrimSpace(goal))
	return r.WriteFile(r.GoalPath(), []byte(doc))
}

// WriteTaskDoc renders one task's prompt document.
func (r *Run) WriteTaskDoc(task *models.Task) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", task.ID, task.Title)
	if len(task.DependsOn) > 0 {
		fmt.Fprintf(&b, "Depends on: %s\n\n", strings.Join(task.DependsOn, ", "))
	}
	b.WriteString(strings.TrimSpace(task.Prompt))
	b.WriteString("\n")
	return r.WriteFile(r.TaskDocPath(task.ID), []byte(b.String()))
}

// Summary captures everything the run summary document reports.
type Summary struct {
	// Goal is the user goal for the run.
	Goal string
	// BaseBranch is the branch the run integrated onto.
	BaseBranch string
	// Order is the plan's topological order.
	Order []string
	// Results maps task id to its result.
	Results map[string]*models.TaskResult
	// Titles maps task id to its title.
	Titles map[string]string
	// Merged is true when the integration completed.
	Merged bool
	// Failure names the fatal cause when the run failed.
	Failure string
	// FailureLog is the log path associated with the fatal cause, if any.
	FailureLog string
}

// WriteSummary renders SUMMARY.md listing every task with its status,
// branch, commit and artifact paths, plus the fatal cause when present.
func (r *Run) WriteSummary(s *Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Goal: %s\n\n", strings.TrimSpace(s.Goal))
	fmt.Fprintf(&b, "Base branch: %s\n\n", s.BaseBranch)

	b.WriteString("## Tasks\n\n")
	for _, id := range s.Order {
		res := s.Results[id]
		title := s.Titles[id]
		if res == nil {
			fmt.Fprintf(&b, "- %s: SKIPPED — %s\n", id, title)
			continue
		}
		status := "OK"
		if !res.OK() {
			status = fmt.Sprintf("FAIL(%d)", res.ExitCode)
		}
		fmt.Fprintf(&b, "- %s: %s — %s\n", id, status, title)
		fmt.Fprintf(&b, "  - branch: %s\n", res.Branch)
		commit := res.Commit
		if commit == "" {
			commit = "(no commit)"
		}
		fmt.Fprintf(&b, "  - commit: %s\n", commit)
		fmt.Fprintf(&b, "  - result: %s\n", res.ResultPath)
		fmt.Fprintf(&b, "  - log: %s\n", res.LogPath)
	}

	b.WriteString("\n## Outcome\n\n")
	switch {
	case s.Failure != "":
		fmt.Fprintf(&b, "FAILED: %s\n", s.Failure)
		if s.FailureLog != "" {
			fmt.Fprintf(&b, "See %s\n", s.FailureLog)
		}
	case s.Merged:
		b.WriteString("All task branches merged onto the base branch.\n")
	default:
		b.WriteString("Merge skipped (--no-merge).\n")
	}

	return r.WriteFile(r.SummaryPath(), []byte(b.String()))
}
