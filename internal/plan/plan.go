// Package plan parses and validates plan documents and computes the
// deterministic task order used for scheduling and final integration.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// taskIDPattern is the required shape of task identifiers.
var taskIDPattern = regexp.MustCompile(`^T\d{2}$`)

// Plan is a validated plan document.
// Tasks and Order are immutable after Parse returns.
type Plan struct {
	// Title is the plan's short name.
	Title string `json:"title"`
	// Overview describes the overall approach.
	Overview string `json:"overview"`
	// MergeNotes carries optional guidance for the integration phase.
	MergeNotes string `json:"merge_notes,omitempty"`
	// Tasks is the ordered collection of tasks as authored.
	Tasks []*models.Task `json:"tasks"`
	// Order is the deterministic topological order of task ids.
	Order []string `json:"-"`

	byID map[string]*models.Task
}

// Parse unmarshals and validates a plan document.
// It is the only constructor of *Plan.
func Parse(data []byte) (*Plan, error) {
	p := &Plan{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate applies the validation rules in order and computes Order.
func (p *Plan) validate() error {
	if len(p.Tasks) == 0 {
		return fmt.Errorf("plan has no tasks")
	}

	p.byID = make(map[string]*models.Task, len(p.Tasks))
	for _, task := range p.Tasks {
		if task == nil {
			return fmt.Errorf("plan contains a null task entry")
		}
		if !taskIDPattern.MatchString(task.ID) {
			return fmt.Errorf("invalid task id %q (expected T followed by two digits)", task.ID)
		}
		if _, dup := p.byID[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		p.byID[task.ID] = task
	}

	for _, task := range p.Tasks {
		for _, dep := range task.DependsOn {
			if dep == task.ID {
				return fmt.Errorf("task %s depends on itself", task.ID)
			}
			if _, ok := p.byID[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, dep)
			}
		}
	}

	order, err := p.topoOrder()
	if err != nil {
		return err
	}
	p.Order = order
	return nil
}

// topoOrder computes a deterministic topological order: repeatedly pop the
// lexicographically smallest ready node. Failing to consume every node
// means the graph has a cycle.
func (p *Plan) topoOrder() ([]string, error) {
	indegree := make(map[string]int, len(p.Tasks))
	dependents := make(map[string][]string, len(p.Tasks))
	for _, task := range p.Tasks {
		deps := dedupe(task.DependsOn)
		indegree[task.ID] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	var ready []string
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(p.Tasks))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, child := range dependents[id] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(p.Tasks) {
		return nil, ErrCycleDetected
	}
	return order, nil
}

// Task returns the task for a given id, or nil if not found.
func (p *Plan) Task(id string) *models.Task {
	return p.byID[id]
}

// Deps returns a task's dependency ids with duplicates removed,
// preserving the order listed in depends_on.
func (p *Plan) Deps(id string) []string {
	task := p.byID[id]
	if task == nil {
		return nil
	}
	return dedupe(task.DependsOn)
}

// dedupe removes duplicate ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
