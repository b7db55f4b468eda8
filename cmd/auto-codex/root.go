package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var rootVerbose bool

// CheckCodexCLI verifies that the 'codex' CLI is available in PATH.
// Returns an error with installation instructions if not found.
func CheckCodexCLI() error {
	_, err := exec.LookPath("codex")
	if err != nil {
		return fmt.Errorf("codex CLI not found in PATH\n\n" +
			"auto-codex drives the Codex CLI to execute tasks.\n\n" +
			"Install it with:\n" +
			"  npm install -g @openai/codex")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "auto-codex",
	Short: "Multi-agent task orchestrator for the Codex CLI",
	Long: `auto-codex decomposes a goal into a dependency graph of tasks,
runs them in parallel Codex agents inside isolated git worktrees,
and merges the resulting branches back onto the base branch under
strict conflict and quality gates.

Core behavior:
- Plans work as T01..Tnn tasks with explicit dependencies
- Pre-merges dependency branches into each task worktree
- Delegates merge conflicts to the executor, then re-verifies
- Never advances the base branch unless every task succeeded`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// debugLogger returns a stderr logger when --verbose is set, else a no-op.
func debugLogger() func(format string, args ...interface{}) {
	if !rootVerbose {
		return func(format string, args ...interface{}) {}
	}
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log scheduling and merge decisions to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
