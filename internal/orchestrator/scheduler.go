// Package orchestrator drives the run lifecycle: dependency-aware parallel
// task execution over isolated worktrees and ordered final integration.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ShayCichocki/auto-codex/internal/config"
	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// ErrDeadlock indicates the scheduler observed no running task while
// pending tasks still had unmet dependencies. Plan validation rejects
// cyclic graphs first, so this is reachable only under internal bugs.
var ErrDeadlock = errors.New("scheduler deadlock: pending tasks with no runnable work")

// TaskExecutor runs one task to completion and returns its result.
// Implementations must not touch scheduling state; they only report back.
type TaskExecutor func(ctx context.Context, task *models.Task) *models.TaskResult

// Scheduler is the single coordinator that owns all scheduling state.
// Task runners execute concurrently and communicate only through the
// completion channel.
type Scheduler struct {
	plan     *plan.Plan
	workers  int
	execute  TaskExecutor
	debugLog func(format string, args ...interface{})
}

// NewScheduler creates a Scheduler with the worker count clamped to the
// configured bounds.
func NewScheduler(p *plan.Plan, workers int, execute TaskExecutor) *Scheduler {
	return &Scheduler{
		plan:     p,
		workers:  config.ClampAgents(workers),
		execute:  execute,
		debugLog: func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (s *Scheduler) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		s.debugLog = fn
	}
}

// Workers returns the effective worker count.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Run executes every task of the plan, launching ready tasks up to the
// worker bound and draining in-flight tasks after a failure.
//
// A task is ready when every dependency is done. Among simultaneously
// ready tasks the launch order is ascending by id; finish order is not
// guaranteed. On the first failed task no further tasks launch, but
// running tasks are never cancelled. The returned map holds a result for
// every task that launched.
func (s *Scheduler) Run(ctx context.Context) (map[string]*models.TaskResult, error) {
	pending := make(map[string]*models.Task, len(s.plan.Tasks))
	for _, task := range s.plan.Tasks {
		pending[task.ID] = task
	}
	running := make(map[string]bool)
	done := make(map[string]bool)
	results := make(map[string]*models.TaskResult, len(s.plan.Tasks))

	completions := make(chan *models.TaskResult)
	stopped := false
	var firstErr error

	for len(pending) > 0 || len(running) > 0 {
		if !stopped {
			for _, id := range s.ready(pending, done) {
				if len(running) >= s.workers {
					break
				}
				task := pending[id]
				delete(pending, id)
				running[id] = true
				s.debugLog("[scheduler] launching %s (%d/%d slots)", id, len(running), s.workers)
				go func(t *models.Task) {
					completions <- s.execute(ctx, t)
				}(task)
			}
		}

		if len(running) == 0 {
			if len(pending) > 0 {
				return results, ErrDeadlock
			}
			break
		}

		res := <-completions
		delete(running, res.TaskID)
		results[res.TaskID] = res

		if res.OK() {
			s.debugLog("[scheduler] %s completed", res.TaskID)
			done[res.TaskID] = true
			continue
		}

		s.debugLog("[scheduler] %s failed (exit %d), stopping launches", res.TaskID, res.ExitCode)
		stopped = true
		for id := range pending {
			delete(pending, id)
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("task %s failed: %s", res.TaskID, res.FailureReason())
		}
	}

	return results, firstErr
}

// ready returns the pending task ids whose dependencies are all done,
// ascending by id.
func (s *Scheduler) ready(pending map[string]*models.Task, done map[string]bool) []string {
	var ready []string
	for id, task := range pending {
		ok := true
		for _, dep := range task.DependsOn {
			if !done[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}
