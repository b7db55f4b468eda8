package codex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

func writeResult(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTaskReport_Done(t *testing.T) {
	path := writeResult(t, `{"status": "done", "summary": "added the parser", "notes": "see parser.go"}`)
	report, err := ReadTaskReport(path)
	if err != nil {
		t.Fatalf("ReadTaskReport() error: %v", err)
	}
	if report.Status != models.ResultStatusDone {
		t.Errorf("Status = %q", report.Status)
	}
	if report.Summary != "added the parser" || report.Notes != "see parser.go" {
		t.Errorf("report = %+v", report)
	}
}

func TestReadTaskReport_Failures(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"blocked status", `{"status": "blocked", "summary": "stuck"}`, "status \"blocked\""},
		{"unknown status", `{"status": "partial", "summary": "s"}`, "unknown status"},
		{"missing summary", `{"status": "done"}`, "missing a summary"},
		{"invalid json", `{"status": `, "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeResult(t, tt.doc)
			_, err := ReadTaskReport(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadTaskReport_AbsentFile(t *testing.T) {
	_, err := ReadTaskReport(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for absent result file")
	}
}

func TestReadMergeReport(t *testing.T) {
	path := writeResult(t, `{"status": "done", "summary": "kept both hunks"}`)
	report, err := ReadMergeReport(path)
	if err != nil {
		t.Fatalf("ReadMergeReport() error: %v", err)
	}
	if report.Summary != "kept both hunks" {
		t.Errorf("Summary = %q", report.Summary)
	}

	failPath := writeResult(t, `{"status": "failed", "summary": "could not reconcile"}`)
	if _, err := ReadMergeReport(failPath); err == nil {
		t.Fatal("expected error for failed merge status")
	}
}
