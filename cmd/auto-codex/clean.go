package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/orchestrator"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <run_id>",
	Short: "Remove a run's worktrees and branches",
	Long: `Remove every worktree and task branch created by the given run.

The run lifecycle never removes worktrees or branches itself; this is
the only reaper. Artifacts under .auto-codex/runs/ are kept as the
audit record. Running clean twice is a no-op.

Example:
  auto-codex clean 20260805-142733-1a2b3c4d`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	g := git.NewRunner(cwd)
	repoRoot, err := g.Root()
	if err != nil {
		return err
	}

	result, err := orchestrator.Clean(git.NewRunner(repoRoot), repoRoot, runID)
	if err != nil {
		return err
	}

	for _, path := range result.Worktrees {
		fmt.Printf("removed worktree %s\n", path)
	}
	for _, branch := range result.Branches {
		fmt.Printf("removed branch %s\n", branch)
	}
	if len(result.Worktrees) == 0 && len(result.Branches) == 0 {
		fmt.Printf("nothing to clean for run %s\n", runID)
	}
	return nil
}
