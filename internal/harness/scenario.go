package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end chain test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the directory of CUE resource declarations.
	// Relative paths are resolved against the base path given to
	// LoadScenarioWithBasePath.
	Catalog string `yaml:"catalog"`

	// Seed maps table names to the rows inserted before the chain runs.
	Seed map[string][]map[string]any `yaml:"seed,omitempty"`

	// Resource is the name the chain is created against.
	Resource string `yaml:"resource"`

	// Steps are recorded in order. Each entry is a one-key mapping from
	// method name to its argument list; a scalar is a single argument.
	Steps []map[string]any `yaml:"steps"`

	// Assertions validate the recorded chain and its terminal results.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type is one of describe, hash, steps, terminal, chain_error.
	Type string `yaml:"type"`

	// Value is the expected text (describe, hash).
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of recorded steps (steps).
	Count int `yaml:"count,omitempty"`

	// Call and Args name the terminal method and its arguments (terminal).
	Call string `yaml:"call,omitempty"`
	Args []any  `yaml:"args,omitempty"`

	// Result is the expected terminal result (terminal).
	Result any `yaml:"result,omitempty"`

	// Step is the zero-based index where recording must fail (chain_error).
	Step *int `yaml:"step,omitempty"`

	// Code and Contains match the recording error (chain_error).
	Code     string `yaml:"code,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertDescribe   = "describe"
	AssertHash       = "hash"
	AssertSteps      = "steps"
	AssertTerminal   = "terminal"
	AssertChainError = "chain_error"
)

// LoadScenario reads and parses a scenario YAML file. A relative catalog
// path is resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}

	if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}

	if s.Resource == "" {
		return fmt.Errorf("resource is required")
	}

	for i, step := range s.Steps {
		if len(step) != 1 {
			return fmt.Errorf("steps[%d]: must have exactly one method, got %d", i, len(step))
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDescribe, AssertHash:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertSteps:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for steps", index)
		}
	case AssertTerminal:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for terminal", index)
		}
	case AssertChainError:
		if a.Code == "" && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: code or contains is required for chain_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// stepCall splits a one-key step mapping into its method and arguments.
func stepCall(step map[string]any) (string, []any) {
	for name, raw := range step {
		if list, ok := raw.([]any); ok {
			return name, list
		}
		if raw == nil {
			return name, []any{}
		}
		return name, []any{raw}
	}
	return "", nil
}
