package plan

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// branchUnsafe matches every character a branch segment may not contain.
var branchUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NewRunID derives a locally unique run identifier from wall-clock time
// plus a random suffix.
func NewRunID() string {
	return time.Now().UTC().Format("20060102-150405") + "-" + uuid.New().String()[:8]
}

// SanitizeRunID replaces every character outside [A-Za-z0-9._-] with "-".
func SanitizeRunID(runID string) string {
	return branchUnsafe.ReplaceAllString(runID, "-")
}

// BranchName returns the task branch name acdx/<sanitizedRunId>/<taskId>.
// Nothing else in the repository builds branch names.
func BranchName(runID, taskID string) string {
	return "acdx/" + SanitizeRunID(runID) + "/" + taskID
}

// BranchPrefix returns the branch namespace for a run.
func BranchPrefix(runID string) string {
	return "acdx/" + SanitizeRunID(runID) + "/"
}
