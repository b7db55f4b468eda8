package plan

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	doc := `{
		"title": "Add importer",
		"overview": "Split into parser and writer",
		"merge_notes": "writer depends on parser types",
		"tasks": [
			{"id": "T02", "title": "Writer", "prompt": "write", "depends_on": ["T01"]},
			{"id": "T01", "title": "Parser", "prompt": "parse"}
		]
	}`

	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Title != "Add importer" {
		t.Errorf("Title = %q", p.Title)
	}
	if got, want := p.Order, []string{"T01", "T02"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	if p.Task("T01") == nil || p.Task("T99") != nil {
		t.Errorf("Task lookup broken")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			"empty tasks",
			`{"title": "t", "overview": "o", "tasks": []}`,
			"no tasks",
		},
		{
			"bad id shape",
			`{"title": "t", "overview": "o", "tasks": [{"id": "T1", "title": "a", "prompt": "p"}]}`,
			"invalid task id",
		},
		{
			"three digit id",
			`{"title": "t", "overview": "o", "tasks": [{"id": "T123", "title": "a", "prompt": "p"}]}`,
			"invalid task id",
		},
		{
			"duplicate id",
			`{"title": "t", "overview": "o", "tasks": [
				{"id": "T01", "title": "a", "prompt": "p"},
				{"id": "T01", "title": "b", "prompt": "p"}]}`,
			"duplicate task id",
		},
		{
			"self dependency",
			`{"title": "t", "overview": "o", "tasks": [
				{"id": "T01", "title": "a", "prompt": "p", "depends_on": ["T01"]}]}`,
			"depends on itself",
		},
		{
			"unknown dependency",
			`{"title": "t", "overview": "o", "tasks": [
				{"id": "T01", "title": "a", "prompt": "p", "depends_on": ["T09"]}]}`,
			"unknown task",
		},
		{
			"not json",
			`{"title": `,
			"parse plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Cycle(t *testing.T) {
	doc := `{"title": "t", "overview": "o", "tasks": [
		{"id": "T01", "title": "a", "prompt": "p", "depends_on": ["T03"]},
		{"id": "T02", "title": "b", "prompt": "p", "depends_on": ["T01"]},
		{"id": "T03", "title": "c", "prompt": "p", "depends_on": ["T02"]}]}`

	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestTopoOrder_Deterministic(t *testing.T) {
	// Diamond plus an independent task; among ready tasks, lexicographically
	// smallest pops first.
	doc := `{"title": "t", "overview": "o", "tasks": [
		{"id": "T04", "title": "d", "prompt": "p", "depends_on": ["T02", "T03"]},
		{"id": "T03", "title": "c", "prompt": "p", "depends_on": ["T01"]},
		{"id": "T05", "title": "e", "prompt": "p"},
		{"id": "T02", "title": "b", "prompt": "p", "depends_on": ["T01"]},
		{"id": "T01", "title": "a", "prompt": "p"}]}`

	want := []string{"T01", "T02", "T03", "T04", "T05"}
	for i := 0; i < 5; i++ {
		p, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}
		if !reflect.DeepEqual(p.Order, want) {
			t.Fatalf("Order = %v, want %v", p.Order, want)
		}
	}
}

func TestTopoOrder_DepsEarlier(t *testing.T) {
	doc := `{"title": "t", "overview": "o", "tasks": [
		{"id": "T01", "title": "a", "prompt": "p"},
		{"id": "T02", "title": "b", "prompt": "p", "depends_on": ["T01"]},
		{"id": "T03", "title": "c", "prompt": "p", "depends_on": ["T01"]},
		{"id": "T04", "title": "d", "prompt": "p", "depends_on": ["T03", "T02"]}]}`

	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	pos := map[string]int{}
	for i, id := range p.Order {
		pos[id] = i
	}
	for _, task := range p.Tasks {
		for _, dep := range task.DependsOn {
			if pos[dep] >= pos[task.ID] {
				t.Errorf("dependency %s not before %s in %v", dep, task.ID, p.Order)
			}
		}
	}
}

func TestDeps_Deduplicated(t *testing.T) {
	doc := `{"title": "t", "overview": "o", "tasks": [
		{"id": "T01", "title": "a", "prompt": "p"},
		{"id": "T02", "title": "b", "prompt": "p", "depends_on": ["T01", "T01"]}]}`

	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got, want := p.Deps("T02"), []string{"T01"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Deps(T02) = %v, want %v", got, want)
	}
	if got := p.Deps("T01"); got != nil {
		t.Errorf("Deps(T01) = %v, want nil", got)
	}
}
