package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/catalog"
	"github.com/roach88/querychain/internal/sqlprovider"
	"github.com/roach88/querychain/internal/testutil"
)

// paidJSON is Order.where("status", "paid").order("id").
const paidJSON = `{"chain_methods":[{"where":["status","paid"]},{"order":["id"]}],"class":"Order"}`

const paidHash = "652b2d3a25a96dea67c05caac128ea2009ece82672d633925279bc9537f499f8"

// testEnv is a working directory with a catalog, a seeded database and a
// blob directory.
type testEnv struct {
	dir     string
	db      string
	catalog string
	blobs   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		db:      filepath.Join(dir, "querychain.db"),
		catalog: filepath.Join(dir, "catalog"),
		blobs:   filepath.Join(dir, "exports"),
	}
	testutil.WriteCatalog(t, env.catalog)
	t.Setenv("QUERYCHAIN_BLOB_DIR", env.blobs)

	cat, err := catalog.Load(env.catalog)
	require.NoError(t, err)
	spec, ok := cat.Lookup("Order")
	require.True(t, ok)

	ctx := context.Background()
	db, dialect, err := sqlprovider.Open(ctx, "sqlite3", env.db)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqlprovider.CreateTable(ctx, db, dialect, spec))
	require.NoError(t, sqlprovider.InsertRows(ctx, db, dialect, spec, testutil.OrderRows()))
	return env
}

// run executes the root command with the environment's global flags.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db, "--catalog", e.catalog}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
