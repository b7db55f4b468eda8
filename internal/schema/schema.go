// Package schema embeds the JSON schemas the executor validates its output
// against and materializes them at their stable relative paths.
package schema

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed schemas/*.json
var embedded embed.FS

// Names of the schema files under .auto-codex/schemas/.
const (
	PlanSchema  = "plan.schema.json"
	TaskSchema  = "task.schema.json"
	MergeSchema = "merge.schema.json"
)

// Dir returns the schema directory for a repository root.
func Dir(repoRoot string) string {
	return filepath.Join(repoRoot, ".auto-codex", "schemas")
}

// PathFor returns the on-disk path of a named schema for a repository root.
func PathFor(repoRoot, name string) string {
	return filepath.Join(Dir(repoRoot), name)
}

// Ensure writes every embedded schema under .auto-codex/schemas/ if missing
// or stale. Existing files with identical content are left untouched.
func Ensure(repoRoot string) error {
	dir := Dir(repoRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	for _, name := range []string{PlanSchema, TaskSchema, MergeSchema} {
		data, err := embedded.ReadFile("schemas/" + name)
		if err != nil {
			return fmt.Errorf("read embedded schema %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if existing, err := os.ReadFile(path); err == nil && string(existing) == string(data) {
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write schema %s: %w", name, err)
		}
	}
	return nil
}
