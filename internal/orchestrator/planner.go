package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/ShayCichocki/auto-codex/internal/codex"
	"github.com/ShayCichocki/auto-codex/internal/plan"
	"github.com/ShayCichocki/auto-codex/internal/schema"
)

// GeneratePlan produces plan.json through a read-only executor invocation,
// validates it, and renders the goal and per-task prompt documents.
func (o *Orchestrator) GeneratePlan(ctx context.Context, goal string, workers int) (*plan.Plan, error) {
	o.goal = goal
	if err := o.paths.EnsureLayout(); err != nil {
		return nil, err
	}
	if err := o.paths.WriteGoal(goal); err != nil {
		return nil, err
	}

	inv := o.newInvocation(o.keys.Next(), schema.PlanSchema)
	inv.Sandbox = codex.SandboxReadOnly
	inv.Dir = o.repoRoot
	inv.OutputPath = o.paths.PlanPath()
	inv.Prompt = planPrompt(goal, workers)

	exitCode, err := o.codex.Exec(ctx, inv, o.paths.PlanLogPath())
	if err != nil {
		return nil, fmt.Errorf("run planning executor: %w", err)
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("planning executor exited %d (see %s)", exitCode, o.paths.PlanLogPath())
	}

	data, err := os.ReadFile(o.paths.PlanPath())
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	p, err := plan.Parse(data)
	if err != nil {
		return nil, err
	}

	for _, task := range p.Tasks {
		if err := o.paths.WriteTaskDoc(task); err != nil {
			return nil, err
		}
	}

	o.plan = p
	return p, nil
}

// LoadPlan validates an existing plan document and adopts it for this run.
func (o *Orchestrator) LoadPlan(goal string, data []byte) (*plan.Plan, error) {
	o.goal = goal
	p, err := plan.Parse(data)
	if err != nil {
		return nil, err
	}
	o.plan = p
	return p, nil
}
