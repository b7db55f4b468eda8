package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecRunner implements Runner using exec.Command.
type ExecRunner struct {
	repoPath string
}

// NewRunner creates a new git runner operating in the given directory.
// For worktree-scoped operations, pass the worktree path.
func NewRunner(repoPath string) *ExecRunner {
	return &ExecRunner{repoPath: repoPath}
}

// run executes a git command and returns its trimmed output.
func (r *ExecRunner) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// runSilent executes a git command and ignores output.
func (r *ExecRunner) runSilent(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return nil
}

// Root returns the canonical repository root.
func (r *ExecRunner) Root() (string, error) {
	out, err := r.run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the name of the current branch.
func (r *ExecRunner) CurrentBranch() (string, error) {
	return r.run("rev-parse", "--abbrev-ref", "HEAD")
}

// IsClean returns true iff git status --porcelain prints nothing.
func (r *ExecRunner) IsClean() (bool, error) {
	out, err := r.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// HeadSha returns the full sha of HEAD.
func (r *ExecRunner) HeadSha() (string, error) {
	return r.run("rev-parse", "HEAD")
}

// WorktreeAdd creates newBranch at baseRef and checks it out at path.
func (r *ExecRunner) WorktreeAdd(baseRef, newBranch, path string) error {
	return r.runSilent("worktree", "add", "-b", newBranch, path, baseRef)
}

// WorktreeRemove removes the worktree at path (forced).
func (r *ExecRunner) WorktreeRemove(path string) error {
	return r.runSilent("worktree", "remove", "--force", path)
}

// BranchDelete force-deletes the named branch.
func (r *ExecRunner) BranchDelete(name string) error {
	return r.runSilent("branch", "-D", name)
}

// Merge attempts to merge ref with the given mode.
// A merge conflict is not an error here: it surfaces as a non-zero exit code
// with the captured output, so callers can branch on UnmergedPaths.
func (r *ExecRunner) Merge(ref string, mode MergeMode) (int, string, error) {
	args := []string{"merge", "--no-ff"}
	switch mode {
	case MergeNoFFNoEdit:
		args = append(args, "--no-edit")
	case MergeNoFFNoCommit:
		args = append(args, "--no-commit")
	default:
		return -1, "", fmt.Errorf("unknown merge mode %d", mode)
	}
	args = append(args, ref)

	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), string(out), nil
		}
		return -1, string(out), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return 0, string(out), nil
}

// MergeAbort aborts an in-progress merge.
func (r *ExecRunner) MergeAbort() error {
	return r.runSilent("merge", "--abort")
}

// UnmergedPaths returns files with unmerged changes.
func (r *ExecRunner) UnmergedPaths() ([]string, error) {
	out, err := r.run("diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// AddAll stages every change.
func (r *ExecRunner) AddAll() error {
	return r.runSilent("add", "-A")
}

// CommitNoVerify commits staged changes, bypassing hooks.
func (r *ExecRunner) CommitNoVerify(message string) error {
	return r.runSilent("commit", "--no-verify", "-m", message)
}

// ChangedFilesBetween returns files changed between two refs.
func (r *ExecRunner) ChangedFilesBetween(ref1, ref2 string) ([]string, error) {
	out, err := r.run("diff", "--name-only", ref1, ref2)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// AppendExclude appends patterns to .git/info/exclude when not already present.
// The exclude file keeps run artifacts and worktrees out of status output
// without touching the project's .gitignore.
func (r *ExecRunner) AppendExclude(patterns ...string) error {
	gitDir, err := r.run("rev-parse", "--git-common-dir")
	if err != nil {
		return err
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.repoPath, gitDir)
	}
	excludePath := filepath.Join(gitDir, "info", "exclude")

	existing := map[string]bool{}
	if data, err := os.ReadFile(excludePath); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			existing[strings.TrimSpace(line)] = true
		}
	}

	var missing []string
	for _, p := range patterns {
		if !existing[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(excludePath), 0o755); err != nil {
		return fmt.Errorf("create exclude directory: %w", err)
	}
	f, err := os.OpenFile(excludePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open exclude file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return fmt.Errorf("append exclude patterns: %w", err)
	}
	return nil
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
