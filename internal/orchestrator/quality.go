package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/ShayCichocki/auto-codex/internal/exec"
)

// PlaceholderMatch is one placeholder token found in a changed file.
type PlaceholderMatch struct {
	File  string
	Token string
}

// scanPlaceholders walks the files changed between the two refs and reports
// every configured placeholder token found. With no configured tokens the
// gate is a no-op regardless of mode.
func (o *Orchestrator) scanPlaceholders(fromRef, toRef string) ([]PlaceholderMatch, error) {
	tokens := o.cfg.Quality.PlaceholderTokens
	if o.cfg.Quality.PlaceholderCheck == "off" || len(tokens) == 0 {
		return nil, nil
	}

	files, err := o.git.ChangedFilesBetween(fromRef, toRef)
	if err != nil {
		return nil, fmt.Errorf("list changed files: %w", err)
	}

	var matches []PlaceholderMatch
	for _, file := range files {
		data, err := os.ReadFile(filepath.Join(o.repoRoot, file))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		content := string(data)
		for _, token := range tokens {
			if strings.Contains(content, token) {
				matches = append(matches, PlaceholderMatch{File: file, Token: token})
			}
		}
	}
	return matches, nil
}

// runTestCommand runs the configured test command with its stdout and stderr
// both streamed to os.Stdout; stdin is not connected.
// A non-zero result is a run failure; no test command configured is a pass.
func (o *Orchestrator) runTestCommand(ctx context.Context, runner exec.CommandRunner) error {
	command := strings.TrimSpace(o.cfg.Commands.Test)
	if command == "" {
		return nil
	}

	var argv []string
	if o.cfg.Commands.TestShell {
		argv = []string{"sh", "-c", command}
	} else {
		split, err := shellquote.Split(command)
		if err != nil {
			return fmt.Errorf("parse test command: %w", err)
		}
		argv = split
	}

	exitCode, err := runner.Stream(ctx, exec.Command{Argv: argv, Dir: o.repoRoot}, os.Stdout)
	if err != nil {
		return fmt.Errorf("run test command: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("test command failed: %w", &exec.ProcessError{Argv: argv, ExitCode: exitCode})
	}
	return nil
}
