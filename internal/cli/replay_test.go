package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_Named(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "paid.json", paidJSON)
	_, err := env.run(t, "save", "paid-orders", path)
	require.NoError(t, err)

	out, err := env.run(t, "replay", "paid-orders")
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 chain(s)")
	assert.Contains(t, out, "✓ paid-orders: Order.where(\"status\", \"paid\").order(\"id\")")
	assert.True(t, strings.HasSuffix(out, "✓ All chains replayed\n"), out)
}

func TestReplay_AllWithFailure(t *testing.T) {
	env := newTestEnv(t)
	paid := env.writeFile(t, "paid.json", paidJSON)
	colour := env.writeFile(t, "colour.json", `{"chain_methods":[{"where":["colour","red"]}],"class":"Order"}`)
	_, err := env.run(t, "save", "paid-orders", paid)
	require.NoError(t, err)
	_, err = env.run(t, "save", "red-orders", colour)
	require.NoError(t, err)

	metricsFile := filepath.Join(env.dir, "querychain.prom")
	out, err := env.run(t, "--format", "json", "replay", "--all", "--workers", "2", "--metrics-file", metricsFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.False(t, resp.Data.AllOK)

	byName := map[string]ReplayQueryResult{}
	for _, q := range resp.Data.Queries {
		byName[q.Name] = q
	}
	assert.True(t, byName["paid-orders"].OK)
	assert.Equal(t, 2, byName["paid-orders"].Steps)

	red := byName["red-orders"]
	assert.False(t, red.OK)
	assert.Equal(t, ErrCodeReplayFailed, red.Code)
	assert.Contains(t, red.Error, "unknown column")

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "querychain_replays_total")
}

func TestReplay_Arguments(t *testing.T) {
	env := newTestEnv(t)

	t.Run("names and all", func(t *testing.T) {
		_, err := env.run(t, "replay", "--all", "paid-orders")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("neither", func(t *testing.T) {
		_, err := env.run(t, "replay")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("negative workers", func(t *testing.T) {
		_, err := env.run(t, "replay", "--all", "--workers", "-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--workers")
	})

	t.Run("unknown name", func(t *testing.T) {
		out, err := env.run(t, "replay", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E002]")
	})

	t.Run("nothing saved", func(t *testing.T) {
		out, err := env.run(t, "replay", "--all")
		require.NoError(t, err)
		assert.Contains(t, out, "Replay Summary: 0 chain(s)")
	})
}
