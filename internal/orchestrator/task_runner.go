package orchestrator

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/merge"
	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/internal/schema"
	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// runTask executes one task: create the isolated worktree, pre-merge
// dependency branches, invoke the executor, commit any changes.
// It is the TaskExecutor handed to the scheduler and never retries;
// a task succeeds only with a zero executor exit and a valid "done" result.
func (o *Orchestrator) runTask(ctx context.Context, task *models.Task) *models.TaskResult {
	res := &models.TaskResult{
		TaskID:     task.ID,
		Branch:     plan.BranchName(o.runID, task.ID),
		Worktree:   o.paths.WorktreePath(task.ID),
		ResultPath: o.paths.ResultPath(task.ID),
		LogPath:    o.paths.LogPath(task.ID),
	}
	apiKey := o.keys.Next()

	if err := o.git.WorktreeAdd(o.baseRef, res.Branch, res.Worktree); err != nil {
		res.ExitCode = -1
		res.Err = fmt.Sprintf("create worktree: %v", err)
		return res
	}
	wt := o.gitFor(res.Worktree)

	if err := o.preMergeDeps(ctx, task, wt, res, apiKey); err != nil {
		res.ExitCode = -1
		res.Err = err.Error()
		return res
	}

	inv := o.newInvocation(apiKey, schema.TaskSchema)
	inv.Sandbox = codex.SandboxWorkspaceWrite
	inv.Dir = res.Worktree
	inv.OutputPath = res.ResultPath
	inv.Prompt = taskPrompt(o.runID, o.baseRef, task, o.goal, o.plan.Overview)

	exitCode, err := o.codex.Exec(ctx, inv, res.LogPath)
	res.ExitCode = exitCode
	if err != nil {
		res.Err = fmt.Sprintf("run executor: %v", err)
		return res
	}
	if exitCode != 0 {
		res.Err = fmt.Sprintf("executor exited %d", exitCode)
		return res
	}

	// A result file that is absent, unparseable, or not status "done" is
	// equivalent to a non-zero exit.
	if _, err := codex.ReadTaskReport(res.ResultPath); err != nil {
		res.Err = err.Error()
		return res
	}

	clean, err := wt.IsClean()
	if err != nil {
		res.Err = fmt.Sprintf("check worktree status: %v", err)
		return res
	}
	if clean {
		o.debugLog("[task %s] no changes, no commit", task.ID)
		return res
	}

	if err := wt.AddAll(); err != nil {
		res.Err = fmt.Sprintf("stage changes: %v", err)
		return res
	}
	if err := wt.CommitNoVerify(task.ID + ": " + task.Title); err != nil {
		res.Err = fmt.Sprintf("commit changes: %v", err)
		return res
	}
	sha, err := wt.HeadSha()
	if err != nil {
		res.Err = fmt.Sprintf("read committed sha: %v", err)
		return res
	}
	res.Commit = sha
	o.debugLog("[task %s] committed %s on %s", task.ID, sha, res.Branch)
	return res
}

// preMergeDeps merges every dependency branch into the task worktree in the
// order listed, with duplicates removed. Conflicts are delegated to the
// executor through the shared assist routine; any other failure fails the
// task outright.
func (o *Orchestrator) preMergeDeps(ctx context.Context, task *models.Task, wt git.Runner, res *models.TaskResult, apiKey string) error {
	deps := o.plan.Deps(task.ID)
	if len(deps) == 0 {
		return nil
	}

	for _, depID := range deps {
		depBranch := plan.BranchName(o.runID, depID)
		req := &merge.Request{
			Git:           wt,
			Codex:         o.codex,
			Ref:           depBranch,
			Mode:          git.MergeNoFFNoEdit,
			CommitMessage: fmt.Sprintf("Merge %s (deps for %s)", depBranch, task.ID),
			WorkDir:       res.Worktree,
			BuildContext: func(conflicts []string) (string, error) {
				doc := merge.DepContext(task.ID, depBranch, conflicts, o.depSummaries(deps))
				path := o.paths.DepMergeContextPath(task.ID, depID)
				return path, o.paths.WriteFile(path, doc)
			},
			BuildPrompt: func(conflicts []string, contextPath string) string {
				return mergePrompt(res.Branch, depBranch, conflicts, contextPath)
			},
			Invocation: o.newInvocation(apiKey, schema.MergeSchema),
			OutputPath: o.paths.DepMergeResultPath(task.ID, depID),
			LogPath:    o.paths.DepMergeLogPath(task.ID, depID),
			DebugLog:   o.debugLog,
		}
		if _, err := merge.Assist(ctx, req); err != nil {
			return fmt.Errorf("pre-merge %s: %w", depBranch, err)
		}
	}
	return nil
}

// depSummaries collects the already-produced dependency reports for a
// merge context document. Dependencies finished before this task launched,
// so their result files exist.
func (o *Orchestrator) depSummaries(deps []string) []merge.TaskSummary {
	var out []merge.TaskSummary
	for _, depID := range deps {
		s := merge.TaskSummary{ID: depID}
		if task := o.plan.Task(depID); task != nil {
			s.Title = task.Title
		}
		if report, err := codex.ReadTaskReport(o.paths.ResultPath(depID)); err == nil {
			s.Summary = report.Summary
			s.Notes = report.Notes
		}
		out = append(out, s)
	}
	return out
}
