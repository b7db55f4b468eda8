// Package codex invokes the external codex CLI, the executor that carries
// out task prompts and conflict resolutions inside sandboxed working copies.
package codex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/ShayCichocki/auto-codex/internal/exec"
)

// Sandbox modes accepted by the executor.
const (
	SandboxReadOnly       = "read-only"
	SandboxWorkspaceWrite = "workspace-write"
)

// Invocation describes a single executor run.
type Invocation struct {
	// Sandbox is the executor sandbox mode.
	Sandbox string
	// FullAuto enables the executor's full-auto mode.
	FullAuto bool
	// Model is the model name passed to the executor.
	Model string
	// ReasoningEffort is the validated reasoning-effort value, or "" to omit.
	ReasoningEffort string
	// OutputSchemaPath constrains the result document shape, or "" to omit.
	OutputSchemaPath string
	// WebSearch is "cached" or "live"; "live" also enables live search.
	WebSearch string
	// NetworkAccess enables workspace network access.
	// Only honored in workspace-write mode.
	NetworkAccess bool
	// OutputPath receives the executor's final message / result document.
	OutputPath string
	// Prompt is the instruction text, always the last argument.
	Prompt string
	// Dir is the working copy the executor runs in.
	Dir string
	// APIKey, when non-empty, is exported to the child as OPENAI_API_KEY.
	APIKey string
	// Timeout terminates the executor after the given duration. Zero disables it.
	Timeout time.Duration
}

// argv assembles the executor command line.
func (inv *Invocation) argv(bin string) []string {
	args := []string{bin, "exec", "--sandbox", inv.Sandbox}
	if inv.FullAuto {
		args = append(args, "--full-auto")
	}
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	if inv.ReasoningEffort != "" {
		args = append(args, "-c", "model_reasoning_effort="+inv.ReasoningEffort)
	}
	if inv.WebSearch != "" {
		args = append(args, "-c", "web_search="+inv.WebSearch)
		if inv.WebSearch == "live" {
			args = append(args, "--search")
		}
	}
	if inv.NetworkAccess && inv.Sandbox == SandboxWorkspaceWrite {
		args = append(args, "-c", "sandbox_workspace_write.network_access=true")
	}
	if inv.OutputSchemaPath != "" {
		args = append(args, "--output-schema", inv.OutputSchemaPath)
	}
	if inv.OutputPath != "" {
		args = append(args, "--output-last-message", inv.OutputPath)
	}
	return append(args, inv.Prompt)
}

// Runner invokes the executor binary.
type Runner struct {
	bin  string
	exec exec.CommandRunner
}

// NewRunner creates a Runner using the default "codex" binary.
func NewRunner(cr exec.CommandRunner) *Runner {
	return &Runner{bin: "codex", exec: cr}
}

// NewRunnerWithBinary creates a Runner for a specific binary (for testing).
func NewRunnerWithBinary(bin string, cr exec.CommandRunner) *Runner {
	return &Runner{bin: bin, exec: cr}
}

// Exec runs one executor invocation with stdout/stderr mirrored to logPath.
// The log opens in append mode and receives a two-line header naming the
// working directory and the full command before any child output.
// Returns the executor's exit code unchanged.
func (r *Runner) Exec(ctx context.Context, inv Invocation, logPath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return -1, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return -1, fmt.Errorf("open log %s: %w", logPath, err)
	}
	defer logFile.Close()

	argv := inv.argv(r.bin)
	header := fmt.Sprintf("# cwd: %s\n# exec: %s\n", inv.Dir, shellquote.Join(argv...))
	if _, err := logFile.WriteString(header); err != nil {
		return -1, fmt.Errorf("write log header: %w", err)
	}

	cmd := exec.Command{
		Argv:    argv,
		Dir:     inv.Dir,
		Timeout: inv.Timeout,
	}
	if inv.APIKey != "" {
		cmd.Env = []string{"OPENAI_API_KEY=" + inv.APIKey}
	}
	return r.exec.Stream(ctx, cmd, logFile)
}
