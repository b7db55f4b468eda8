package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/git"
)

// Failure kinds for executor-assisted merges. Callers classify with errors.Is.
var (
	// ErrNonConflictFailure indicates the merge failed without producing
	// unmerged paths, so there is nothing the executor could resolve.
	ErrNonConflictFailure = errors.New("merge failed without conflicts")
	// ErrExecutorFailed indicates the executor's merge call returned non-zero
	// or produced an invalid result document.
	ErrExecutorFailed = errors.New("executor-assisted merge failed")
	// ErrResidualMarkers indicates conflict markers survived the resolution.
	ErrResidualMarkers = errors.New("conflict markers remain after resolution")
	// ErrUnmergedPaths indicates unmerged paths survived the resolution.
	ErrUnmergedPaths = errors.New("unmerged paths remain after resolution")
)

// Request parameterizes one merge-with-executor-assist attempt.
// The dependency pre-merge and the final integration differ only in mode,
// commit message, context builder and artifact paths.
type Request struct {
	// Git operates in the working copy performing the merge.
	Git git.Runner
	// Codex invokes the executor for conflict resolution.
	Codex *codex.Runner
	// Ref is the branch being merged.
	Ref string
	// Mode selects the merge flag set.
	Mode git.MergeMode
	// CommitMessage is used for the commit concluding the merge.
	CommitMessage string
	// WorkDir is the working copy path, used for marker scans and as the
	// executor's working directory.
	WorkDir string
	// BuildContext writes a context document for the conflicted files and
	// returns its path.
	BuildContext func(conflicts []string) (string, error)
	// BuildPrompt produces the executor prompt.
	BuildPrompt func(conflicts []string, contextPath string) string
	// Invocation is the executor invocation template; prompt, dir and output
	// path are filled in here.
	Invocation codex.Invocation
	// OutputPath receives the executor's merge result document.
	OutputPath string
	// LogPath receives the executor's mirrored output.
	LogPath string
	// DebugLog is an optional logging hook.
	DebugLog func(format string, args ...interface{})
}

func (r *Request) debugf(format string, args ...interface{}) {
	if r.DebugLog != nil {
		r.DebugLog(format, args...)
	}
}

// Assist merges r.Ref into the current branch of r.WorkDir, delegating
// conflict resolution to the executor when needed.
//
// On a clean merge it commits (the no-commit mode explicitly, the no-edit
// mode through git itself) and returns no conflicts. On a conflicted merge
// it runs the executor and re-verifies: any residual marker or unmerged path
// aborts the merge and fails. No partial merge is ever committed.
func Assist(ctx context.Context, r *Request) ([]string, error) {
	exitCode, output, err := r.Git.Merge(r.Ref, r.Mode)
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", r.Ref, err)
	}
	if exitCode == 0 {
		r.debugf("[merge] %s merged cleanly", r.Ref)
		if r.Mode == git.MergeNoFFNoCommit {
			if err := r.Git.CommitNoVerify(r.CommitMessage); err != nil {
				return nil, fmt.Errorf("commit clean merge of %s: %w", r.Ref, err)
			}
		}
		return nil, nil
	}

	conflicts, err := r.Git.UnmergedPaths()
	if err != nil {
		r.abort()
		return nil, fmt.Errorf("list unmerged paths: %w", err)
	}
	if len(conflicts) == 0 {
		r.abort()
		return nil, fmt.Errorf("merge %s exited %d: %s: %w",
			r.Ref, exitCode, strings.TrimSpace(output), ErrNonConflictFailure)
	}
	r.debugf("[merge] %s conflicted on %d files: %v", r.Ref, len(conflicts), conflicts)

	contextPath, err := r.BuildContext(conflicts)
	if err != nil {
		r.abort()
		return conflicts, fmt.Errorf("write merge context: %w", err)
	}

	inv := r.Invocation
	inv.Sandbox = codex.SandboxWorkspaceWrite
	inv.Dir = r.WorkDir
	inv.OutputPath = r.OutputPath
	inv.Prompt = r.BuildPrompt(conflicts, contextPath)

	execExit, err := r.Codex.Exec(ctx, inv, r.LogPath)
	if err != nil {
		r.abort()
		return conflicts, fmt.Errorf("run executor merge: %w", err)
	}
	if execExit != 0 {
		r.abort()
		return conflicts, fmt.Errorf("executor merge for %s exited %d: %w", r.Ref, execExit, ErrExecutorFailed)
	}
	if _, err := codex.ReadMergeReport(r.OutputPath); err != nil {
		r.abort()
		return conflicts, fmt.Errorf("%v: %w", err, ErrExecutorFailed)
	}

	dirty, err := ScanMarkers(r.WorkDir, conflicts)
	if err != nil {
		r.abort()
		return conflicts, err
	}
	if len(dirty) > 0 {
		r.abort()
		return conflicts, fmt.Errorf("markers left in %s: %w", strings.Join(dirty, ", "), ErrResidualMarkers)
	}

	if err := r.Git.AddAll(); err != nil {
		r.abort()
		return conflicts, fmt.Errorf("stage resolution: %w", err)
	}
	unmerged, err := r.Git.UnmergedPaths()
	if err != nil {
		r.abort()
		return conflicts, fmt.Errorf("re-check unmerged paths: %w", err)
	}
	if len(unmerged) > 0 {
		r.abort()
		return conflicts, fmt.Errorf("still unmerged: %s: %w", strings.Join(unmerged, ", "), ErrUnmergedPaths)
	}

	if err := r.Git.CommitNoVerify(r.CommitMessage); err != nil {
		return conflicts, fmt.Errorf("commit resolution of %s: %w", r.Ref, err)
	}
	r.debugf("[merge] %s resolved and committed", r.Ref)
	return conflicts, nil
}

// abort best-effort aborts the in-progress merge.
func (r *Request) abort() {
	_ = r.Git.MergeAbort()
}
