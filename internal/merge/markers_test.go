package merge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestScanMarkers(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("clean.go", "package main\n\nfunc main() {}\n")
	write("ours.go", "a\n<<<<<<< HEAD\nb\n=======\nc\n>>>>>>> branch\n")
	write("mid.go", "x\n=======\ny\n")
	write("inline.go", "s := \"<<<<<<< not a marker\"\nindent <<<<<<<\n")

	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{"clean file", []string{"clean.go"}, nil},
		{"full conflict block", []string{"ours.go"}, []string{"ours.go"}},
		{"bare separator counts", []string{"mid.go"}, []string{"mid.go"}},
		{"markers must start the line", []string{"inline.go"}, nil},
		{"deleted file is clean", []string{"gone.go"}, nil},
		{"mixed set", []string{"clean.go", "ours.go", "gone.go"}, []string{"ours.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanMarkers(dir, tt.files)
			if err != nil {
				t.Fatalf("ScanMarkers() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanMarkers() = %v, want %v", got, tt.want)
			}
		})
	}
}
