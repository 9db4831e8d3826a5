package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_PaidOrders(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/paid_orders.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/paid_orders.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "paid_orders", result))
}

func TestSnapshotDeterminism(t *testing.T) {
	result := NewResult()
	result.Describe = `Order.limit(1)`
	result.ChainHash = "abc"
	result.Encodings["json"] = `{"chain_methods":[{"limit":[1]}],"class":"Order"}`
	result.AddStepTrace("limit", []any{1}, "")
	result.AddTerminalTrace("count", nil, int64(1), "")

	first, err := MarshalSnapshot("determinism", result)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalSnapshot("determinism", result)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t,
		`{"chain_hash":"abc","describe":"Order.limit(1)","json":"{\"chain_methods\":[{\"limit\":[1]}],\"class\":\"Order\"}",`+
			`"scenario_name":"determinism","trace":[{"args":[1],"method":"limit","seq":1,"type":"step"},`+
			`{"args":[],"method":"count","result":1,"seq":2,"type":"terminal"}]}`,
		string(first))
}

func TestSnapshotOmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.AddStepTrace("limit", []any{1.5}, "UNSERIALIZABLE_ARGUMENT: bad")

	_, err := MarshalSnapshot("float", result)
	require.Error(t, err, "float args cannot be snapshotted")

	result = NewResult()
	result.AddStepTrace("where", []any{"colour", "red"}, "unknown column")
	data, err := MarshalSnapshot("failed", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"failed","trace":[{"args":["colour","red"],"error":"unknown column","method":"where","seq":1,"type":"step"}]}`,
		string(data))
}

func TestGoldenFile_WriteAndCheck(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/paid_orders.yaml")
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)

	path := GoldenPath(filepath.Join(t.TempDir(), "paid.yaml"), scenario.Name)
	assert.Equal(t, "golden", filepath.Base(filepath.Dir(path)))

	status, err := CheckGolden(path, scenario.Name, result)
	require.NoError(t, err)
	assert.Equal(t, GoldenMissing, status)

	require.NoError(t, WriteGolden(path, scenario.Name, result))
	status, err = CheckGolden(path, scenario.Name, result)
	require.NoError(t, err)
	assert.Equal(t, GoldenMatch, status)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	status, err = CheckGolden(path, scenario.Name, result)
	require.NoError(t, err)
	assert.Equal(t, GoldenMismatch, status)
}
