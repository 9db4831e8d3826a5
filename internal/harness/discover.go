package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioNotFoundError is returned when a directory holds no scenarios.
type ScenarioNotFoundError struct {
	Dir string
}

func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("no scenario files (*.yaml, *.yml) found in %s", e.Dir)
}

// Discover returns the scenario files in dir, sorted by path.
// Subdirectories are not searched.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, &ScenarioNotFoundError{Dir: dir}
	}
	slices.Sort(paths)
	return paths, nil
}
