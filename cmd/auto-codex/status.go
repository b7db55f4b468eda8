package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs from the ledger",
	Long: `List recent runs recorded in .auto-codex/state.db with their task
outcomes. The ledger is observational; the JSON artifacts under
.auto-codex/runs/ remain the source of truth.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	repoRoot, err := git.NewRunner(cwd).Root()
	if err != nil {
		return err
	}

	dbPath := state.Path(repoRoot)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	db, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.RecentRuns(statusLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	bold := color.New(color.Bold)
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	for _, run := range runs {
		status := run.Status
		switch status {
		case "succeeded":
			status = ok(status)
		case "failed":
			status = fail(status)
		}
		bold.Printf("%s", run.ID)
		fmt.Printf("  [%s]  %s\n", status, run.Goal)

		tasks, err := db.TaskResults(run.ID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.ExitCode == 0 && t.Err == "" {
				fmt.Printf("  %s %s\n", ok("OK "), t.TaskID)
			} else {
				fmt.Printf("  %s %s (exit %d)\n", fail("FAIL"), t.TaskID, t.ExitCode)
			}
		}
	}
	return nil
}
