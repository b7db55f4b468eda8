package orchestrator

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/merge"
	"github.com/ShayCichocki/auto-codex/internal/schema"
	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// Integrate merges every task branch that produced a commit onto the base
// branch in the plan's topological order, on the repository root working
// copy. Conflicts go through the executor-assisted merge protocol; any
// residual marker or unmerged path aborts the current merge and fails the
// integration. Merges already committed on the base are not rolled back.
//
// Precondition (enforced by the caller): every task result is OK.
func (o *Orchestrator) Integrate(ctx context.Context, results map[string]*models.TaskResult) error {
	summaries := o.taskSummaries()

	for _, taskID := range o.plan.Order {
		res := results[taskID]
		if res == nil || res.Commit == "" {
			continue
		}

		branch := res.Branch
		o.debugLog("[integrate] merging %s", branch)

		req := &merge.Request{
			Git:           o.git,
			Codex:         o.codex,
			Ref:           branch,
			Mode:          git.MergeNoFFNoCommit,
			CommitMessage: "Merge " + branch,
			WorkDir:       o.repoRoot,
			BuildContext: func(conflicts []string) (string, error) {
				doc := merge.IntegrationContext(o.runID, branch, conflicts, summaries)
				path := o.paths.MergeContextPath()
				return path, o.paths.WriteFile(path, doc)
			},
			BuildPrompt: func(conflicts []string, contextPath string) string {
				return mergePrompt(o.baseRef, branch, conflicts, contextPath)
			},
			Invocation: o.newInvocation(o.keys.Next(), schema.MergeSchema),
			OutputPath: o.paths.MergeResultPath(taskID),
			LogPath:    o.paths.MergeLogPath(taskID),
			DebugLog:   o.debugLog,
		}
		if _, err := merge.Assist(ctx, req); err != nil {
			return fmt.Errorf("integrate %s: %w", branch, err)
		}
	}
	return nil
}

// taskSummaries collects every task's report for the integration context.
func (o *Orchestrator) taskSummaries() []merge.TaskSummary {
	var out []merge.TaskSummary
	for _, taskID := range o.plan.Order {
		task := o.plan.Task(taskID)
		s := merge.TaskSummary{ID: taskID, Title: task.Title}
		if report, err := codex.ReadTaskReport(o.paths.ResultPath(taskID)); err == nil {
			s.Summary = report.Summary
			s.Notes = report.Notes
		}
		out = append(out, s)
	}
	return out
}
