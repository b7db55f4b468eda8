package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/auto-codex/internal/config"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/schema"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold .auto-codex in the current repository",
	Long: `Write the default configuration to .auto-codex/config.json and
materialize the result schemas under .auto-codex/schemas/.

An existing config is left untouched.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	repoRoot, err := git.NewRunner(cwd).Root()
	if err != nil {
		return err
	}

	if err := schema.Ensure(repoRoot); err != nil {
		return err
	}

	cfgPath := config.Path(repoRoot)
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("config exists: %s\n", cfgPath)
		return nil
	}

	data, err := json.MarshalIndent(buildDefaultConfigDoc(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(cfgPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	color.New(color.FgGreen).Printf("initialized %s\n", cfgPath)
	fmt.Printf("schemas: %s\n", schema.Dir(repoRoot))
	return nil
}

// buildDefaultConfigDoc renders the full option surface so users can edit
// in place instead of consulting documentation.
func buildDefaultConfigDoc() map[string]any {
	cfg := config.Default()
	return map[string]any{
		"agents": cfg.Agents,
		"commands": map[string]any{
			"setup":      "",
			"test":       "",
			"lint":       "",
			"format":     "",
			"build":      "",
			"test_shell": false,
		},
		"codex": map[string]any{
			"model":            cfg.Codex.Model,
			"sandbox":          cfg.Codex.Sandbox,
			"web_search":       cfg.Codex.WebSearch,
			"network_access":   cfg.Codex.NetworkAccess,
			"reasoning_effort": cfg.Codex.ReasoningEffort,
			"full_auto":        cfg.Codex.FullAuto,
			"api_keys_env":     []string{},
		},
		"planning": map[string]any{
			"ask_questions":   cfg.Planning.AskQuestions,
			"max_questions":   cfg.Planning.MaxQuestions,
			"non_interactive": cfg.Planning.NonInteractive,
		},
		"quality": map[string]any{
			"placeholder_check":  cfg.Quality.PlaceholderCheck,
			"placeholder_tokens": []string{},
		},
	}
}
