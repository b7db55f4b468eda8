package orchestrator

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/config"
	"github.com/ShayCichocki/auto-codex/internal/exec"
	"github.com/ShayCichocki/auto-codex/internal/git"
)

// lifecycleExec fakes a full run: the planning invocation receives the
// canned plan document, task invocations receive task reports, and a
// configurable set of task ids fail.
type lifecycleExec struct {
	planDoc   string
	failTasks map[string]int
}

func (l *lifecycleExec) Capture(ctx context.Context, cmd exec.Command) (*exec.Result, error) {
	return &exec.Result{}, nil
}

func (l *lifecycleExec) Stream(ctx context.Context, cmd exec.Command, w io.Writer) (int, error) {
	prompt := cmd.Argv[len(cmd.Argv)-1]
	var outputPath string
	for i, arg := range cmd.Argv {
		if arg == "--output-last-message" && i+1 < len(cmd.Argv) {
			outputPath = cmd.Argv[i+1]
		}
	}

	if !strings.Contains(prompt, taskSentinel) && !strings.Contains(prompt, mergeSentinel) {
		return 0, os.WriteFile(outputPath, []byte(l.planDoc), 0o644)
	}
	for id, code := range l.failTasks {
		if strings.Contains(prompt, "Task: "+id) {
			return code, nil
		}
	}
	doc := `{"status": "done", "summary": "did the work"}`
	return 0, os.WriteFile(outputPath, []byte(doc), 0o644)
}

func (l *lifecycleExec) CaptureShell(ctx context.Context, dir, command string) (*exec.Result, error) {
	return &exec.Result{}, nil
}

const pairPlan = `{"title": "t", "overview": "o", "merge_notes": "watch the README", "tasks": [
	{"id": "T01", "title": "a", "prompt": "p"},
	{"id": "T02", "title": "b", "prompt": "p"}]}`

func newLifecycleOrchestrator(t *testing.T, repo, wt *stubGit, lexec *lifecycleExec) *Orchestrator {
	t.Helper()
	keys, err := config.NewKeyRotor(nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(Options{
		Config:   config.Default(),
		RepoRoot: t.TempDir(),
		RunID:    "run-1",
		BaseRef:  "main",
		Git:      repo,
		GitFor:   func(dir string) git.Runner { return wt },
		Codex:    codex.NewRunner(lexec),
		Keys:     keys,
	})
}

func TestRun_IndependentPairSucceeds(t *testing.T) {
	repo := &stubGit{headSha: "base0"}
	wt := &stubGit{clean: false, headSha: "task-sha"}
	o := newLifecycleOrchestrator(t, repo, wt, &lifecycleExec{planDoc: pairPlan})

	outcome, err := o.Run(context.Background(), RunOptions{Goal: "ship it", Workers: 2})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !outcome.Merged {
		t.Error("outcome not merged")
	}
	if outcome.MergeNotes != "watch the README" {
		t.Errorf("MergeNotes = %q", outcome.MergeNotes)
	}
	if len(outcome.Results) != 2 {
		t.Errorf("results = %v", outcome.Results)
	}
	if got := repo.mergeRefs; len(got) != 2 || got[0] != "acdx/run-1/T01" || got[1] != "acdx/run-1/T02" {
		t.Errorf("integration merges = %v", got)
	}

	data, err := os.ReadFile(o.paths.SummaryPath())
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if !strings.Contains(string(data), "T01: OK") || !strings.Contains(string(data), "T02: OK") {
		t.Errorf("summary:\n%s", data)
	}
}

func TestRun_TaskFailureSkipsIntegration(t *testing.T) {
	repo := &stubGit{headSha: "base0"}
	wt := &stubGit{clean: false, headSha: "task-sha"}
	lexec := &lifecycleExec{planDoc: pairPlan, failTasks: map[string]int{"T02": 3}}
	o := newLifecycleOrchestrator(t, repo, wt, lexec)

	outcome, err := o.Run(context.Background(), RunOptions{Goal: "ship it", Workers: 2})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if outcome.Merged {
		t.Error("failed run must not merge")
	}
	if len(repo.mergeRefs) != 0 {
		t.Errorf("integration ran after failure: %v", repo.mergeRefs)
	}
	if res := outcome.Results["T02"]; res == nil || res.ExitCode != 3 {
		t.Errorf("T02 result = %+v", res)
	}

	data, err := os.ReadFile(o.paths.SummaryPath())
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if !strings.Contains(string(data), "FAIL(3)") {
		t.Errorf("summary:\n%s", data)
	}
}

func TestPreflight(t *testing.T) {
	t.Run("dirty working copy refuses to start", func(t *testing.T) {
		_, _, err := Preflight(&stubGit{clean: false}, "")
		if err == nil || !strings.Contains(err.Error(), "dirty") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("base must be checked out", func(t *testing.T) {
		_, _, err := Preflight(&stubGit{clean: true}, "release")
		if err == nil || !strings.Contains(err.Error(), "not checked out") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("clean copy on base succeeds", func(t *testing.T) {
		_, branch, err := Preflight(&stubGit{clean: true}, "main")
		if err != nil {
			t.Fatalf("Preflight() error: %v", err)
		}
		if branch != "main" {
			t.Errorf("branch = %q", branch)
		}
	})
}

func TestRun_NoMergeSkipsIntegration(t *testing.T) {
	repo := &stubGit{headSha: "base0"}
	wt := &stubGit{clean: false, headSha: "task-sha"}
	o := newLifecycleOrchestrator(t, repo, wt, &lifecycleExec{planDoc: pairPlan})

	outcome, err := o.Run(context.Background(), RunOptions{Goal: "ship it", NoMerge: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if outcome.Merged {
		t.Error("no-merge run reported merged")
	}
	if len(repo.mergeRefs) != 0 {
		t.Errorf("integration ran: %v", repo.mergeRefs)
	}
}
