package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/config"
	"github.com/ShayCichocki/auto-codex/internal/exec"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/orchestrator"
	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/internal/schema"
)

var planAgents int

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Produce a task plan without executing it",
	Long: `Run a read-only planning invocation of the executor and render the
plan with its per-task prompt documents under .auto-codex/runs/.

Examples:
  auto-codex plan "add rate limiting to the API"
  auto-codex plan -j 2 "split the parser package"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVarP(&planAgents, "agents", "j", 0, "Target parallelism for the plan (default from config)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := CheckCodexCLI(); err != nil {
		return err
	}
	goal := strings.Join(args, " ")

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	g := git.NewRunner(cwd)
	repoRoot, err := g.Root()
	if err != nil {
		return err
	}
	baseBranch, err := g.CurrentBranch()
	if err != nil {
		return err
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if err := schema.Ensure(repoRoot); err != nil {
		return err
	}
	keys, err := config.NewKeyRotor(cfg.Codex.APIKeysEnv)
	if err != nil {
		return err
	}

	workers := planAgents
	if workers == 0 {
		workers = cfg.Agents
	}

	runID := plan.NewRunID()
	orch := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		RepoRoot: repoRoot,
		RunID:    runID,
		BaseRef:  baseBranch,
		Git:      git.NewRunner(repoRoot),
		Codex:    codex.NewRunner(exec.NewRunner()),
		Keys:     keys,
		DebugLog: debugLogger(),
	})

	p, err := orch.GeneratePlan(context.Background(), goal, workers)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("%s\n\n", p.Title)
	for _, id := range p.Order {
		task := p.Task(id)
		if len(task.DependsOn) > 0 {
			fmt.Printf("  %s: %s (after %s)\n", id, task.Title, strings.Join(task.DependsOn, ", "))
		} else {
			fmt.Printf("  %s: %s\n", id, task.Title)
		}
	}
	fmt.Printf("\nPlan: %s\n", orch.Paths().PlanPath())
	if p.MergeNotes != "" {
		fmt.Printf("\nMerge notes:\n%s\n", p.MergeNotes)
	}
	return nil
}
