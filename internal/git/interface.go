// Package git provides an interface for git operations.
package git

// MergeMode selects the flag set for a merge attempt.
type MergeMode int

const (
	// MergeNoFFNoEdit merges with --no-ff --no-edit, committing on success.
	// Used by the dependency pre-merge inside task worktrees.
	MergeNoFFNoEdit MergeMode = iota
	// MergeNoFFNoCommit merges with --no-ff --no-commit, leaving the result
	// staged. Used by the final integration on the base branch.
	MergeNoFFNoCommit
)

// RepoOperations defines repository-level queries.
type RepoOperations interface {
	// Root returns the canonical repository root.
	// Fails when the directory is not inside a repository.
	Root() (string, error)
	// CurrentBranch returns the short branch name of HEAD.
	CurrentBranch() (string, error)
	// IsClean returns true iff the porcelain status output is empty.
	IsClean() (bool, error)
	// HeadSha returns the full sha of HEAD.
	HeadSha() (string, error)
}

// BranchOperations defines branch and worktree operations.
type BranchOperations interface {
	// WorktreeAdd creates newBranch at baseRef and materializes a working
	// copy at path (git worktree add -b).
	WorktreeAdd(baseRef, newBranch, path string) error
	// WorktreeRemove removes the worktree at path (forced).
	WorktreeRemove(path string) error
	// BranchDelete force-deletes the named branch.
	BranchDelete(name string) error
}

// MergeOperations defines merge operations.
type MergeOperations interface {
	// Merge attempts to merge ref with the given mode. A conflicted or
	// otherwise failed merge is reported through the exit code, not the error.
	Merge(ref string, mode MergeMode) (exitCode int, output string, err error)
	// MergeAbort aborts an in-progress merge. Best effort.
	MergeAbort() error
	// UnmergedPaths lists files from diff --name-only --diff-filter=U.
	UnmergedPaths() ([]string, error)
}

// CommitOperations defines staging and commit operations.
type CommitOperations interface {
	// AddAll stages every change (git add -A).
	AddAll() error
	// CommitNoVerify commits staged changes with --no-verify.
	CommitNoVerify(message string) error
}

// FileOperations defines miscellaneous tree queries and mutations.
type FileOperations interface {
	// ChangedFilesBetween returns files changed between two refs.
	ChangedFilesBetween(ref1, ref2 string) ([]string, error)
	// AppendExclude appends patterns to .git/info/exclude when missing.
	AppendExclude(patterns ...string) error
}

// Runner defines the complete interface for git operations used by the core.
// Consumers should prefer the focused interfaces when possible.
type Runner interface {
	RepoOperations
	BranchOperations
	MergeOperations
	CommitOperations
	FileOperations
}
