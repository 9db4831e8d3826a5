package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querychain/internal/ir"
)

// Snapshot captures the deterministic parts of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Describe     string
	ChainHash    string
	JSON         string
	Trace        []TraceEvent
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		args := event.Args
		if args == nil {
			args = []any{}
		}
		eventMap := map[string]any{
			"type":   event.Type,
			"method": event.Method,
			"args":   args,
			"seq":    event.Seq,
		}
		if event.Result != nil {
			eventMap["result"] = event.Result
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Describe != "" {
		result["describe"] = s.Describe
	}
	if s.ChainHash != "" {
		result["chain_hash"] = s.ChainHash
	}
	if s.JSON != "" {
		result["json"] = s.JSON
	}
	return result
}

// MarshalSnapshot returns the canonical JSON snapshot of a run, the
// content of its golden file.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Describe:     result.Describe,
		ChainHash:    result.ChainHash,
		JSON:         result.Encodings["json"],
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// GoldenStatus is the outcome of comparing a run with its golden file.
type GoldenStatus int

const (
	GoldenMissing GoldenStatus = iota
	GoldenMatch
	GoldenMismatch
)

// GoldenPath is the golden file for scenario name loaded from scenarioFile:
// <dir>/golden/<name>.golden.
func GoldenPath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// WriteGolden stores the run's snapshot at path, creating its directory.
func WriteGolden(path, name string, result *Result) error {
	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CheckGolden compares the run's snapshot with the file at path.
func CheckGolden(path, name string, result *Result) (GoldenStatus, error) {
	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return GoldenMissing, nil
	}
	if err != nil {
		return 0, err
	}
	got, err := MarshalSnapshot(name, result)
	if err != nil {
		return 0, fmt.Errorf("snapshot: %w", err)
	}
	if !bytes.Equal(want, got) {
		return GoldenMismatch, nil
	}
	return GoldenMatch, nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
