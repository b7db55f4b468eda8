// Package merge implements the merge-with-executor-assist protocol shared
// by dependency pre-merges and final integration.
package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// markerPattern matches a git conflict marker at the start of a line.
var markerPattern = regexp.MustCompile(`(?m)^(<<<<<<<|=======|>>>>>>>)`)

// ScanMarkers re-scans the given files under dir for residual conflict
// markers and returns the files that still contain any.
// Files deleted by the resolution are treated as clean.
func ScanMarkers(dir string, files []string) ([]string, error) {
	var dirty []string
	for _, file := range files {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", file, err)
		}
		if markerPattern.Match(data) {
			dirty = append(dirty, file)
		}
	}
	return dirty, nil
}
