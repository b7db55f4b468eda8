package state

import (
	"time"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// RunRecord is one run row in the ledger.
type RunRecord struct {
	// ID is the run identifier.
	ID string
	// Goal is the user goal the run was started with.
	Goal string
	// BaseBranch is the branch the run integrated onto.
	BaseBranch string
	// Status is "running", "succeeded" or "failed".
	Status string
	// CreatedAt is when the run was recorded.
	CreatedAt time.Time
}

// TaskRecord is one task-result row in the ledger.
type TaskRecord struct {
	RunID    string
	TaskID   string
	Branch   string
	Commit   string
	ExitCode int
	Err      string
}

// Store records runs and task results for later inspection.
// The ledger is observational; the JSON artifacts remain the source of
// truth for a run.
type Store interface {
	// RecordRun inserts a run with status "running".
	RecordRun(runID, goal, baseBranch string) error
	// FinishRun updates a run's final status.
	FinishRun(runID, status string) error
	// RecordTaskResult inserts one task result.
	RecordTaskResult(runID string, res *models.TaskResult) error
	// RecentRuns lists the most recent runs, newest first.
	RecentRuns(limit int) ([]RunRecord, error)
	// TaskResults lists a run's task results ordered by task id.
	TaskResults(runID string) ([]TaskRecord, error)
	// Close releases the underlying database.
	Close() error
}
