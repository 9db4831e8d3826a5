package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersScenario(steps []map[string]any, assertions ...Assertion) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Catalog:     "testdata/catalog",
		Resource:    "Order",
		Seed: map[string][]map[string]any{
			"orders": {
				{"id": 1, "status": "paid", "region": "eu", "total_cents": 300, "paid": true},
				{"id": 2, "status": "open", "region": "us", "total_cents": 100, "paid": false},
				{"id": 3, "status": "paid", "region": "us", "total_cents": 200, "paid": true},
			},
		},
		Steps:      steps,
		Assertions: assertions,
	}
}

func intPtr(n int) *int { return &n }

func TestRun_ScenarioFiles(t *testing.T) {
	paths, err := Discover("testdata/scenarios")
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_RecordsTrace(t *testing.T) {
	scenario := ordersScenario(
		[]map[string]any{
			{"where": []any{"region", "us"}},
			{"order": []any{"total_cents", "desc"}},
		},
		Assertion{Type: AssertTerminal, Call: "pluck", Args: []any{"id"}, Result: []any{3, 2}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, EventStep, result.Trace[0].Type)
	assert.Equal(t, "where", result.Trace[0].Method)
	assert.Equal(t, EventStep, result.Trace[1].Type)
	assert.Equal(t, EventTerminal, result.Trace[2].Type)
	assert.Equal(t, []any{int64(3), int64(2)}, result.Trace[2].Result)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}

	assert.Equal(t, `Order.where("region", "us").order("total_cents", "desc")`, result.Describe)
	assert.Len(t, result.ChainHash, 64)
	assert.Contains(t, result.Encodings, "json")
	assert.Contains(t, result.Encodings, "yaml")
}

func TestRun_TerminalMismatchFails(t *testing.T) {
	scenario := ordersScenario(
		[]map[string]any{{"where": []any{"status", "paid"}}},
		Assertion{Type: AssertTerminal, Call: "count", Result: 5},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: count[] = 5")
	assert.Contains(t, result.Errors[0], "Actual: 2")
}

func TestRun_UnexpectedChainErrorFails(t *testing.T) {
	scenario := ordersScenario(
		[]map[string]any{{"limit": []any{-1}}},
		Assertion{Type: AssertSteps, Count: 1},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Empty(t, result.Describe)

	var joined string
	for _, e := range result.Errors {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "chain failed: step 0")
	assert.Contains(t, joined, "must not be negative")
}

func TestRun_ChainErrorWrongStep(t *testing.T) {
	scenario := ordersScenario(
		[]map[string]any{
			{"where": []any{"status", "paid"}},
			{"where": []any{"colour", "red"}},
		},
		Assertion{Type: AssertChainError, Step: intPtr(0), Contains: "unknown column"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failure at step 1")
}

func TestRun_UnknownResource(t *testing.T) {
	scenario := ordersScenario(nil, Assertion{Type: AssertSteps})
	scenario.Resource = "Invoice"

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chain")
}

func TestRun_SeedUnknownTable(t *testing.T) {
	scenario := ordersScenario(nil, Assertion{Type: AssertSteps})
	scenario.Seed["invoices"] = []map[string]any{{"id": 1}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seed table "invoices" is not declared`)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := ordersScenario(
		[]map[string]any{{"where": []any{map[string]any{"status": "paid", "region": "us"}}}},
		Assertion{Type: AssertTerminal, Call: "all"},
	)
	scenario.Assertions[0].Result = []any{
		map[string]any{"id": 3, "status": "paid", "region": "us", "total_cents": 200, "paid": true},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, first.Pass, "errors: %v", first.Errors)
	assert.Equal(t, first.ChainHash, second.ChainHash)
	assert.Equal(t, first.Encodings, second.Encodings)
	assert.Equal(t, first.Trace, second.Trace)
}
