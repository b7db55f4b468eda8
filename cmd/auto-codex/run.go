package main

import (
	"context"
	"fmt"
	"os"
	"sort"
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
	"github.com/ShayCichocki/auto-codex/internal/state"
)

var (
	runAgents  int
	runBase    string
	runNoMerge bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Plan and execute a goal end to end",
	Long: `Plan the goal, execute every task in parallel worktrees, and merge
the task branches onto the base branch.

The run refuses to start on a dirty working copy. On any task failure
the integration is skipped and the command exits non-zero; the base
branch is left untouched.

Examples:
  auto-codex run "add rate limiting to the API"
  auto-codex run -j 8 "migrate storage layer to sqlite"
  auto-codex run --no-merge "prototype the importer"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runAgents, "agents", "j", 0, "Maximum parallel agents (default from config)")
	runCmd.Flags().StringVar(&runBase, "base", "", "Base branch (must be checked out; default: current branch)")
	runCmd.Flags().BoolVar(&runNoMerge, "no-merge", false, "Execute tasks but skip final integration")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := CheckCodexCLI(); err != nil {
		return err
	}
	goal := strings.Join(args, " ")

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	repoRoot, baseBranch, err := orchestrator.Preflight(git.NewRunner(cwd), runBase)
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

	warn := color.New(color.FgYellow).FprintfFunc()
	var ledger state.Store
	if db, err := state.Open(state.Path(repoRoot)); err != nil {
		warn(os.Stderr, "run ledger unavailable: %v\n", err)
	} else {
		ledger = db
		defer db.Close()
	}

	runID := plan.NewRunID()
	execRunner := exec.NewRunner()
	orch := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		RepoRoot: repoRoot,
		RunID:    runID,
		BaseRef:  baseBranch,
		Git:      git.NewRunner(repoRoot),
		Codex:    codex.NewRunner(execRunner),
		Keys:     keys,
		Ledger:   ledger,
		DebugLog: debugLogger(),
	})

	bold := color.New(color.Bold)
	bold.Printf("Run %s on %s\n", runID, baseBranch)

	outcome, runErr := orch.Run(context.Background(), orchestrator.RunOptions{
		Goal:    goal,
		Workers: runAgents,
		NoMerge: runNoMerge,
		Exec:    execRunner,
		Warn: func(format string, a ...interface{}) {
			warn(os.Stderr, format+"\n", a...)
		},
	})
	if outcome != nil {
		printResults(outcome)
	}
	fmt.Printf("Summary: %s\n", orch.Paths().SummaryPath())
	if runErr != nil {
		return runErr
	}
	if outcome.MergeNotes != "" {
		fmt.Printf("\nMerge notes:\n%s\n", outcome.MergeNotes)
	}
	return nil
}

// printResults prints one colored status line per task.
func printResults(outcome *orchestrator.Outcome) {
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	ids := make([]string, 0, len(outcome.Results))
	for id := range outcome.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := outcome.Results[id]
		if res.OK() {
			commit := res.Commit
			if commit == "" {
				commit = "no commit"
			} else if len(commit) > 8 {
				commit = commit[:8]
			}
			fmt.Printf("  %s %s (%s)\n", ok("OK "), id, commit)
		} else {
			fmt.Printf("  %s %s: %s\n", fail("FAIL"), id, res.FailureReason())
		}
	}
}
