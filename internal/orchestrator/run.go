package orchestrator

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/auto-codex/internal/artifacts"
	"github.com/ShayCichocki/auto-codex/internal/exec"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// Artifact directories kept out of status output via the local exclude file.
var excludePatterns = []string{".auto-codex/runs/", ".auto-codex/worktrees/"}

// RunOptions parameterize one full run.
type RunOptions struct {
	// Goal is the user goal driving the run.
	Goal string
	// Workers overrides the configured worker count when non-zero.
	Workers int
	// NoMerge skips final integration.
	NoMerge bool
	// Exec runs the post-merge test command.
	Exec exec.CommandRunner
	// Warn receives human-facing warnings (placeholder matches in warn mode).
	Warn func(format string, args ...interface{})
}

// Outcome reports what a run produced.
type Outcome struct {
	// Results maps task id to result for every launched task.
	Results map[string]*models.TaskResult
	// Merged is true when the integration completed.
	Merged bool
	// MergeNotes carries the plan's merge notes, surfaced on success.
	MergeNotes string
}

// Preflight verifies the preconditions of a run: inside a repository, clean
// working copy, and — when base is non-empty — the base branch checked out.
// Returns the repository root and the base branch name.
func Preflight(g git.Runner, base string) (string, string, error) {
	root, err := g.Root()
	if err != nil {
		return "", "", err
	}
	clean, err := g.IsClean()
	if err != nil {
		return "", "", err
	}
	if !clean {
		return "", "", fmt.Errorf("working copy is dirty; commit or stash before running")
	}
	current, err := g.CurrentBranch()
	if err != nil {
		return "", "", err
	}
	if base != "" && base != current {
		return "", "", fmt.Errorf("base branch %s is not checked out (on %s)", base, current)
	}
	return root, current, nil
}

// Run drives the full lifecycle: plan, schedule, integrate, summarize.
// A non-nil error means the run failed and the process should exit non-zero.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	warn := opts.Warn
	if warn == nil {
		warn = func(format string, args ...interface{}) {}
	}
	workers := opts.Workers
	if workers == 0 {
		workers = o.cfg.Agents
	}

	if err := o.git.AppendExclude(excludePatterns...); err != nil {
		return nil, err
	}

	p, err := o.GeneratePlan(ctx, opts.Goal, workers)
	if err != nil {
		return nil, err
	}

	if o.ledger != nil {
		if err := o.ledger.RecordRun(o.runID, opts.Goal, o.baseRef); err != nil {
			return nil, err
		}
	}

	sched := NewScheduler(p, workers, o.runTask)
	sched.SetDebugLog(o.debugLog)
	results, schedErr := sched.Run(ctx)

	if o.ledger != nil {
		for _, res := range results {
			if err := o.ledger.RecordTaskResult(o.runID, res); err != nil {
				warn("record task result: %v", err)
			}
		}
	}

	outcome := &Outcome{Results: results}
	summary := &artifacts.Summary{
		Goal:       opts.Goal,
		BaseBranch: o.baseRef,
		Order:      p.Order,
		Results:    results,
		Titles:     taskTitles(p.Tasks),
	}

	if failed := o.failedResult(results, schedErr); failed != "" {
		summary.Failure = failed
		summary.FailureLog = o.failureLog(results)
		o.finish(summary, "failed", warn)
		return outcome, fmt.Errorf("%s", failed)
	}

	if opts.NoMerge {
		o.finish(summary, "succeeded", warn)
		outcome.MergeNotes = p.MergeNotes
		return outcome, nil
	}

	startHead, err := o.git.HeadSha()
	if err != nil {
		return outcome, err
	}

	if err := o.Integrate(ctx, results); err != nil {
		summary.Failure = fmt.Sprintf("integration failed: %v (merges already on %s were kept)", err, o.baseRef)
		summary.FailureLog = o.paths.MergeDir()
		o.finish(summary, "failed", warn)
		return outcome, err
	}

	if err := o.qualityGates(ctx, startHead, opts.Exec, warn); err != nil {
		summary.Merged = true
		outcome.Merged = true
		summary.Failure = err.Error()
		o.finish(summary, "failed", warn)
		return outcome, err
	}

	summary.Merged = true
	o.finish(summary, "succeeded", warn)
	outcome.Merged = true
	outcome.MergeNotes = p.MergeNotes
	return outcome, nil
}

// qualityGates runs the post-merge placeholder scan and test command, in order.
func (o *Orchestrator) qualityGates(ctx context.Context, startHead string, runner exec.CommandRunner, warn func(string, ...interface{})) error {
	matches, err := o.scanPlaceholders(startHead, "HEAD")
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		switch o.cfg.Quality.PlaceholderCheck {
		case "fail":
			return fmt.Errorf("placeholder token %q found in %s", matches[0].Token, matches[0].File)
		case "warn":
			for _, m := range matches {
				warn("placeholder token %q found in %s", m.Token, m.File)
			}
		}
	}

	if runner != nil {
		if err := o.runTestCommand(ctx, runner); err != nil {
			return err
		}
	}
	return nil
}

// failedResult returns a failure description when any task failed.
func (o *Orchestrator) failedResult(results map[string]*models.TaskResult, schedErr error) string {
	if schedErr != nil {
		return schedErr.Error()
	}
	for _, id := range o.plan.Order {
		if res, ok := results[id]; ok && !res.OK() {
			return fmt.Sprintf("task %s failed: %s", id, res.FailureReason())
		}
	}
	return ""
}

// failureLog returns the log path of the first failed task, if any.
func (o *Orchestrator) failureLog(results map[string]*models.TaskResult) string {
	for _, id := range o.plan.Order {
		if res, ok := results[id]; ok && !res.OK() {
			return res.LogPath
		}
	}
	return ""
}

// finish writes the summary and closes out the ledger row.
func (o *Orchestrator) finish(summary *artifacts.Summary, status string, warn func(string, ...interface{})) {
	if err := o.paths.WriteSummary(summary); err != nil {
		warn("write summary: %v", err)
	}
	if o.ledger != nil {
		if err := o.ledger.FinishRun(o.runID, status); err != nil {
			warn("finish ledger run: %v", err)
		}
	}
}

// taskTitles maps task ids to titles for the summary document.
func taskTitles(tasks []*models.Task) map[string]string {
	titles := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	return titles
}
