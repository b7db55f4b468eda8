package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// Sentinel tags marking the kind of executor invocation inside prompts.
const (
	taskSentinel  = "$auto-codex-task"
	mergeSentinel = "$auto-codex-merge"
)

// taskPrompt builds the primary execution prompt for one task.
func taskPrompt(runID, baseRef string, task *models.Task, goal, overview string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", taskSentinel)
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "Base ref: %s\n", baseRef)
	fmt.Fprintf(&b, "Task: %s — %s\n\n", task.ID, task.Title)
	fmt.Fprintf(&b, "## Overall goal\n\n%s\n\n", strings.TrimSpace(goal))
	if overview != "" {
		fmt.Fprintf(&b, "## Plan overview\n\n%s\n\n", strings.TrimSpace(overview))
	}
	fmt.Fprintf(&b, "## Your task\n\n%s\n\n", strings.TrimSpace(task.Prompt))
	b.WriteString("Work only inside this working copy. Do not commit; the ")
	b.WriteString("orchestrator commits for you. When finished, report status, ")
	b.WriteString("summary and optional notes in the required result format.\n")
	return b.String()
}

// mergePrompt builds the conflict-resolution prompt shared by dependency
// pre-merges and final integration.
func mergePrompt(baseBranch, mergingBranch string, conflicts []string, contextPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", mergeSentinel)
	fmt.Fprintf(&b, "A merge of %s into %s stopped on conflicts.\n\n", mergingBranch, baseBranch)
	b.WriteString("Conflicted files:\n")
	for _, f := range conflicts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	fmt.Fprintf(&b, "\nTask context: %s\n\n", contextPath)
	b.WriteString("Resolve every conflict so both sides' intent survives. ")
	b.WriteString("Remove all conflict markers. Do not run git commands that ")
	b.WriteString("commit, abort or reset the merge. Report status and a ")
	b.WriteString("resolution summary in the required result format.\n")
	return b.String()
}

// planPrompt builds the read-only planning prompt that produces plan.json.
func planPrompt(goal string, workers int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decompose the following goal into a plan of independent, ")
	fmt.Fprintf(&b, "mergeable engineering tasks for this repository.\n\n")
	fmt.Fprintf(&b, "## Goal\n\n%s\n\n", strings.TrimSpace(goal))
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- Task ids are T01, T02, ... in execution order.\n")
	fmt.Fprintf(&b, "- Up to %d tasks can run in parallel; prefer tasks that do not touch the same files.\n", workers)
	b.WriteString("- depends_on lists the ids a task builds on; leave it empty when independent.\n")
	b.WriteString("- Each prompt must be self-contained: name the files to touch and the behavior to implement.\n")
	b.WriteString("- Include merge_notes when tasks are likely to collide.\n")
	b.WriteString("Produce the plan in the required result format.\n")
	return b.String()
}
