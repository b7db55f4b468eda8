package orchestrator

import (
	"context"
	"io"
	"os"

	"github.com/ShayCichocki/auto-codex/internal/exec"
	"github.com/ShayCichocki/auto-codex/internal/git"
)

// stubGit scripts git operations for orchestrator tests.
type stubGit struct {
	clean        bool
	headSha      string
	mergeExit    int
	unmerged     []string
	changedFiles []string

	mergeRefs  []string
	commits    []string
	worktrees  []string
	branchDels []string
	aborted    bool
	addedAll   bool
}

func (s *stubGit) Root() (string, error)          { return "", nil }
func (s *stubGit) CurrentBranch() (string, error) { return "main", nil }
func (s *stubGit) IsClean() (bool, error)         { return s.clean, nil }
func (s *stubGit) HeadSha() (string, error)       { return s.headSha, nil }

func (s *stubGit) WorktreeAdd(baseRef, newBranch, path string) error {
	s.worktrees = append(s.worktrees, path)
	return os.MkdirAll(path, 0o755)
}
func (s *stubGit) WorktreeRemove(path string) error { return os.RemoveAll(path) }
func (s *stubGit) BranchDelete(name string) error {
	s.branchDels = append(s.branchDels, name)
	return nil
}

func (s *stubGit) Merge(ref string, mode git.MergeMode) (int, string, error) {
	s.mergeRefs = append(s.mergeRefs, ref)
	return s.mergeExit, "", nil
}
func (s *stubGit) MergeAbort() error                { s.aborted = true; return nil }
func (s *stubGit) UnmergedPaths() ([]string, error) { return s.unmerged, nil }

func (s *stubGit) AddAll() error { s.addedAll = true; return nil }
func (s *stubGit) CommitNoVerify(message string) error {
	s.commits = append(s.commits, message)
	return nil
}

func (s *stubGit) ChangedFilesBetween(ref1, ref2 string) ([]string, error) {
	return s.changedFiles, nil
}
func (s *stubGit) AppendExclude(patterns ...string) error { return nil }

var _ git.Runner = (*stubGit)(nil)

// scriptedExec fakes the executor. When resultDoc is non-empty it writes it
// to the path named by --output-last-message in the invocation argv.
type scriptedExec struct {
	exitCode  int
	resultDoc string
	calls     int
}

func (s *scriptedExec) Capture(ctx context.Context, cmd exec.Command) (*exec.Result, error) {
	return &exec.Result{ExitCode: s.exitCode}, nil
}

func (s *scriptedExec) Stream(ctx context.Context, cmd exec.Command, w io.Writer) (int, error) {
	s.calls++
	if s.resultDoc != "" {
		for i, arg := range cmd.Argv {
			if arg == "--output-last-message" && i+1 < len(cmd.Argv) {
				if err := os.WriteFile(cmd.Argv[i+1], []byte(s.resultDoc), 0o644); err != nil {
					return -1, err
				}
			}
		}
	}
	return s.exitCode, nil
}

func (s *scriptedExec) CaptureShell(ctx context.Context, dir, command string) (*exec.Result, error) {
	return &exec.Result{}, nil
}

var _ exec.CommandRunner = (*scriptedExec)(nil)
