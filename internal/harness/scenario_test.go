package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to an empty catalog directory and
// returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "catalog"), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
catalog: catalog
resource: Order
steps:
  - where: [status, paid]
  - limit: 5
  - unscope:
assertions:
  - type: steps
    count: 3
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "catalog"), scenario.Catalog)
	assert.Equal(t, "Order", scenario.Resource)
	require.Len(t, scenario.Steps, 3)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
catalog: catalog
resource: Order
assertion:
  - type: steps
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ncatalog: catalog\nresource: Order\nassertions: [{type: steps}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ncatalog: catalog\nresource: Order\nassertions: [{type: steps}]\n",
			wantErr: "description is required",
		},
		{
			name:    "catalog not found",
			content: "name: n\ndescription: d\ncatalog: nowhere\nresource: Order\nassertions: [{type: steps}]\n",
			wantErr: "catalog directory not found",
		},
		{
			name:    "missing resource",
			content: "name: n\ndescription: d\ncatalog: catalog\nassertions: [{type: steps}]\n",
			wantErr: "resource is required",
		},
		{
			name:    "step with two methods",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\nsteps:\n  - {where: [a, b], limit: 1}\nassertions: [{type: steps}]\n",
			wantErr: "steps[0]: must have exactly one method, got 2",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "describe without value",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\nassertions: [{type: describe}]\n",
			wantErr: "value is required for describe",
		},
		{
			name:    "terminal without call",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\nassertions: [{type: terminal}]\n",
			wantErr: "call is required for terminal",
		},
		{
			name:    "chain_error without matcher",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\nassertions: [{type: chain_error, step: 0}]\n",
			wantErr: "code or contains is required",
		},
		{
			name:    "unknown type",
			content: "name: n\ndescription: d\ncatalog: catalog\nresource: Order\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStepCall(t *testing.T) {
	name, args := stepCall(map[string]any{"where": []any{"status", "paid"}})
	assert.Equal(t, "where", name)
	assert.Equal(t, []any{"status", "paid"}, args)

	name, args = stepCall(map[string]any{"limit": 5})
	assert.Equal(t, "limit", name)
	assert.Equal(t, []any{5}, args)

	name, args = stepCall(map[string]any{"unscope": nil})
	assert.Equal(t, "unscope", name)
	assert.Empty(t, args)
}

func TestDiscover(t *testing.T) {
	paths, err := Discover("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata/scenarios", "float_rejected.yaml"),
		filepath.Join("testdata/scenarios", "paid_orders.yaml"),
		filepath.Join("testdata/scenarios", "unknown_column.yaml"),
	}, paths)
}

func TestDiscover_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	var notFound *ScenarioNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, dir, notFound.Dir)
}
