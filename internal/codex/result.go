package codex

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// ReadTaskReport loads and checks the result document an executor wrote for
// a task. An absent or unparseable file, or a status other than "done", is
// an error: the caller treats it like a non-zero exit.
func ReadTaskReport(path string) (*models.TaskReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("result %s is not valid JSON", path)
	}

	report := &models.TaskReport{
		Status:  models.ResultStatus(gjson.GetBytes(data, "status").String()),
		Summary: gjson.GetBytes(data, "summary").String(),
		Notes:   gjson.GetBytes(data, "notes").String(),
	}
	if !report.Status.Valid() {
		return nil, fmt.Errorf("result %s has unknown status %q", path, report.Status)
	}
	if report.Status != models.ResultStatusDone {
		return report, fmt.Errorf("result %s reports status %q", path, report.Status)
	}
	if report.Summary == "" {
		return nil, fmt.Errorf("result %s is missing a summary", path)
	}
	return report, nil
}

// ReadMergeReport loads and checks the result document an executor wrote
// after a conflict resolution.
func ReadMergeReport(path string) (*models.MergeReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merge result %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("merge result %s is not valid JSON", path)
	}

	report := &models.MergeReport{
		Status:  models.ResultStatus(gjson.GetBytes(data, "status").String()),
		Summary: gjson.GetBytes(data, "summary").String(),
	}
	if report.Status != models.ResultStatusDone {
		return report, fmt.Errorf("merge result %s reports status %q", path, report.Status)
	}
	return report, nil
}
