package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// parsePlan builds a validated plan from task tuples (id, deps...).
func parsePlan(t *testing.T, tasks ...[]string) *plan.Plan {
	t.Helper()
	doc := `{"title": "t", "overview": "o", "tasks": [`
	for i, task := range tasks {
		if i > 0 {
			doc += ","
		}
		deps := ""
		for j, dep := range task[1:] {
			if j > 0 {
				deps += ","
			}
			deps += fmt.Sprintf("%q", dep)
		}
		doc += fmt.Sprintf(`{"id": %q, "title": "task", "prompt": "p", "depends_on": [%s]}`, task[0], deps)
	}
	doc += `]}`
	p, err := plan.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	return p
}

func okResult(id string) *models.TaskResult {
	return &models.TaskResult{TaskID: id}
}

func TestScheduler_WorkerClamp(t *testing.T) {
	p := parsePlan(t, []string{"T01"})
	if got := NewScheduler(p, 0, nil).Workers(); got != 1 {
		t.Errorf("Workers(0) = %d, want 1", got)
	}
	if got := NewScheduler(p, 99, nil).Workers(); got != 16 {
		t.Errorf("Workers(99) = %d, want 16", got)
	}
}

func TestScheduler_SingleTask(t *testing.T) {
	p := parsePlan(t, []string{"T01"})
	s := NewScheduler(p, 4, func(ctx context.Context, task *models.Task) *models.TaskResult {
		return okResult(task.ID)
	})

	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 1 || !results["T01"].OK() {
		t.Errorf("results = %v", results)
	}
}

func TestScheduler_BoundedParallelism(t *testing.T) {
	p := parsePlan(t,
		[]string{"T01"}, []string{"T02"}, []string{"T03"},
		[]string{"T04"}, []string{"T05"}, []string{"T06"})

	const workers = 2
	var inFlight, maxInFlight int32
	s := NewScheduler(p, workers, func(ctx context.Context, task *models.Task) *models.TaskResult {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return okResult(task.ID)
	})

	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 6 {
		t.Errorf("got %d results", len(results))
	}
	if got := atomic.LoadInt32(&maxInFlight); got > workers {
		t.Errorf("max in-flight = %d, want <= %d", got, workers)
	}
}

func TestScheduler_LaunchOrderAscending(t *testing.T) {
	p := parsePlan(t, []string{"T03"}, []string{"T01"}, []string{"T02"})

	var mu sync.Mutex
	var launches []string
	s := NewScheduler(p, 1, func(ctx context.Context, task *models.Task) *models.TaskResult {
		mu.Lock()
		launches = append(launches, task.ID)
		mu.Unlock()
		return okResult(task.ID)
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := []string{"T01", "T02", "T03"}; !reflect.DeepEqual(launches, want) {
		t.Fatalf("launch order = %v, want %v", launches, want)
	}
}

func TestScheduler_ChainRespectsDependencies(t *testing.T) {
	p := parsePlan(t, []string{"T01"}, []string{"T02", "T01"}, []string{"T03", "T02"})

	var mu sync.Mutex
	var order []string
	s := NewScheduler(p, 4, func(ctx context.Context, task *models.Task) *models.TaskResult {
		mu.Lock()
		order = append(order, task.ID)
		mu.Unlock()
		return okResult(task.ID)
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := []string{"T01", "T02", "T03"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
}

func TestScheduler_FailureStopsLaunchesAndDrains(t *testing.T) {
	// T01 fails quickly; T02 is slow and must drain; T03 depends on T01 and
	// must never launch.
	p := parsePlan(t, []string{"T01"}, []string{"T02"}, []string{"T03", "T01"})

	var t02Finished atomic.Bool
	var t03Launched atomic.Bool
	s := NewScheduler(p, 2, func(ctx context.Context, task *models.Task) *models.TaskResult {
		switch task.ID {
		case "T01":
			return &models.TaskResult{TaskID: "T01", ExitCode: 2}
		case "T02":
			time.Sleep(30 * time.Millisecond)
			t02Finished.Store(true)
			return okResult("T02")
		default:
			t03Launched.Store(true)
			return okResult(task.ID)
		}
	})

	results, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed task")
	}
	if t03Launched.Load() {
		t.Error("T03 launched after failure")
	}
	if !t02Finished.Load() {
		t.Error("in-flight T02 was not drained")
	}
	if _, ok := results["T02"]; !ok {
		t.Error("drained task missing from results")
	}
	if results["T01"].OK() {
		t.Error("failed task recorded as OK")
	}
	if _, ok := results["T03"]; ok {
		t.Error("unlaunched task has a result")
	}
}

func TestScheduler_FailedDependencyBlocksDependents(t *testing.T) {
	p := parsePlan(t, []string{"T01"}, []string{"T02", "T01"})

	s := NewScheduler(p, 4, func(ctx context.Context, task *models.Task) *models.TaskResult {
		return &models.TaskResult{TaskID: task.ID, ExitCode: 1}
	})

	results, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("results = %v, want only T01", results)
	}
}

func TestScheduler_DeadlockDetected(t *testing.T) {
	// Plan validation rejects cycles, so a deadlock needs a hand-built plan
	// that bypassed validation: the scheduler must still fail fast.
	p := &plan.Plan{Tasks: []*models.Task{
		{ID: "T01", Title: "a", Prompt: "p", DependsOn: []string{"T02"}},
	}}

	s := NewScheduler(p, 4, func(ctx context.Context, task *models.Task) *models.TaskResult {
		t.Fatal("nothing should launch")
		return nil
	})

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrDeadlock) {
		t.Fatalf("expected ErrDeadlock, got %v", err)
	}
}
