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

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "paid.json", paidJSON)
	_, err := env.run(t, "save", "paid-orders", path)
	require.NoError(t, err)

	out, err := env.run(t, "export", "paid-orders", "reports/paid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "exported paid-orders to fs:reports/paid.yaml\n", out)

	data, err := os.ReadFile(filepath.Join(env.blobs, "reports", "paid.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "class: Order\n"), string(data))

	out, err = env.run(t, "import", "reports/paid.yaml", "paid-copy")
	require.NoError(t, err)
	assert.Equal(t, "imported fs:reports/paid.yaml as paid-copy\n", out)

	out, err = env.run(t, "load", "paid-copy")
	require.NoError(t, err)
	assert.Equal(t, paidJSON+"\n", out)

	out, err = env.run(t, "--format", "json", "list", "--hash", paidHash)
	require.NoError(t, err)
	var resp struct {
		Data []SavedQueryInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestExport_JSONResult(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "paid.json", paidJSON)
	_, err := env.run(t, "save", "paid-orders", path)
	require.NoError(t, err)

	out, err := env.run(t, "--format", "json", "export", "paid-orders", "paid")
	require.NoError(t, err)

	var resp struct {
		Data TransferResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, TransferResult{
		Name:   "paid-orders",
		Key:    "paid",
		Driver: "fs",
		Format: "json",
		Bytes:  len(paidJSON),
	}, resp.Data)
}

func TestExports(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "exports")
	require.NoError(t, err)
	assert.Equal(t, "No exports.\n", out)

	path := env.writeFile(t, "paid.json", paidJSON)
	_, err = env.run(t, "save", "paid-orders", path)
	require.NoError(t, err)
	for _, key := range []string{"reports/b.json", "reports/a.json", "other.json"} {
		_, err := env.run(t, "export", "paid-orders", key)
		require.NoError(t, err)
	}

	out, err = env.run(t, "exports", "reports/")
	require.NoError(t, err)
	assert.Equal(t, "reports/a.json\nreports/b.json\n", out)
}

func TestTransferErrors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("export unknown chain", func(t *testing.T) {
		out, err := env.run(t, "export", "nope", "nope.json")
		require.Error(t, err)
		assert.Contains(t, out, "Error [E002]")
	})

	t.Run("import missing blob", func(t *testing.T) {
		out, err := env.run(t, "import", "missing.json", "missing")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E002]")
	})

	t.Run("import malformed blob", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(env.blobs, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(env.blobs, "bad.json"), []byte(`{"class":`), 0644))
		out, err := env.run(t, "import", "bad.json", "bad")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error [E003]")
	})
}
