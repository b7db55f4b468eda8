package orchestrator

import (
	"github.com/ShayCichocki/auto-codex/internal/artifacts"
	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/config"
	"github.com/ShayCichocki/auto-codex/internal/git"
	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/internal/schema"
	"github.com/ShayCichocki/auto-codex/internal/state"
)

// Options configures an Orchestrator.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config
	// RepoRoot is the repository root.
	RepoRoot string
	// RunID is this run's identifier.
	RunID string
	// BaseRef is the branch tasks branch from and integration commits onto.
	BaseRef string
	// Git operates at the repository root.
	Git git.Runner
	// GitFor creates a git runner scoped to a worktree path.
	// Defaults to git.NewRunner.
	GitFor func(dir string) git.Runner
	// Codex invokes the executor.
	Codex *codex.Runner
	// Keys rotates API keys across task launches.
	Keys *config.KeyRotor
	// Ledger records runs and results. May be nil.
	Ledger state.Store
	// DebugLog is an optional logging hook.
	DebugLog func(format string, args ...interface{})
}

// Orchestrator owns one run: planning, scheduling, task execution and
// final integration.
type Orchestrator struct {
	cfg      *config.Config
	repoRoot string
	runID    string
	baseRef  string
	paths    *artifacts.Run
	git      git.Runner
	gitFor   func(dir string) git.Runner
	codex    *codex.Runner
	keys     *config.KeyRotor
	ledger   state.Store
	plan     *plan.Plan
	goal     string
	debugLog func(format string, args ...interface{})
}

// New creates an Orchestrator for one run.
func New(opts Options) *Orchestrator {
	gitFor := opts.GitFor
	if gitFor == nil {
		gitFor = func(dir string) git.Runner { return git.NewRunner(dir) }
	}
	debugLog := opts.DebugLog
	if debugLog == nil {
		debugLog = func(format string, args ...interface{}) {}
	}
	return &Orchestrator{
		cfg:      opts.Config,
		repoRoot: opts.RepoRoot,
		runID:    opts.RunID,
		baseRef:  opts.BaseRef,
		paths:    artifacts.NewRun(opts.RepoRoot, opts.RunID),
		git:      opts.Git,
		gitFor:   gitFor,
		codex:    opts.Codex,
		keys:     opts.Keys,
		ledger:   opts.Ledger,
		debugLog: debugLog,
	}
}

// RunID returns this run's identifier.
func (o *Orchestrator) RunID() string { return o.runID }

// Paths returns the run's artifact layout.
func (o *Orchestrator) Paths() *artifacts.Run { return o.paths }

// Plan returns the validated plan, or nil before planning.
func (o *Orchestrator) Plan() *plan.Plan { return o.plan }

// newInvocation builds an executor invocation template from configuration.
// Task execution and conflict resolution run in workspace-write mode;
// planning overrides the sandbox to read-only.
func (o *Orchestrator) newInvocation(apiKey, schemaName string) codex.Invocation {
	return codex.Invocation{
		Sandbox:          o.cfg.Codex.Sandbox,
		FullAuto:         o.cfg.Codex.FullAuto,
		Model:            o.cfg.Codex.Model,
		ReasoningEffort:  o.cfg.Codex.ReasoningEffort,
		WebSearch:        o.cfg.Codex.WebSearch,
		NetworkAccess:    o.cfg.Codex.NetworkAccess,
		OutputSchemaPath: schema.PathFor(o.repoRoot, schemaName),
		APIKey:           apiKey,
	}
}
