package models

import "fmt"

// TaskResult records the outcome of running one task.
type TaskResult struct {
	// TaskID is the id of the task this result belongs to.
	TaskID string `json:"task_id"`
	// Branch is the task branch (acdx/<run>/<id>).
	Branch string `json:"branch"`
	// Worktree is the absolute path of the task's isolated working copy.
	Worktree string `json:"worktree"`
	// ExitCode is the executor's exit code, propagated unchanged.
	// Schema-invalid output keeps the executor's code and is recorded in Err,
	// which makes OK report false even when the executor itself exited zero.
	ExitCode int `json:"exit_code"`
	// Commit is the sha of the commit appended to the task branch,
	// or empty if the working copy was clean at finish.
	Commit string `json:"commit,omitempty"`
	// ResultPath is the path of the executor's result JSON.
	ResultPath string `json:"result_path"`
	// LogPath is the path of the task's log file.
	LogPath string `json:"log_path"`
	// Err describes the failure when the task did not complete cleanly.
	Err string `json:"error,omitempty"`
}

// OK reports whether the task finished with a zero exit and valid output.
func (r *TaskResult) OK() bool {
	return r != nil && r.ExitCode == 0 && r.Err == ""
}

// FailureReason returns a short description of why the task failed.
func (r *TaskResult) FailureReason() string {
	if r.Err != "" {
		return r.Err
	}
	return fmt.Sprintf("exit %d", r.ExitCode)
}
