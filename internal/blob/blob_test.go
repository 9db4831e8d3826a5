package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"fs":     fsStore,
		"memory": NewMemory(),
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte(`{"chain_methods":[],"class":"Order"}`)
			require.NoError(t, s.Put(ctx, "orders/all.json", data))

			got, err := s.Get(ctx, "orders/all.json")
			require.NoError(t, err)
			assert.Equal(t, data, got)

			require.NoError(t, s.Put(ctx, "orders/all.json", []byte("replaced")))
			got, err = s.Get(ctx, "orders/all.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("replaced"), got)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nope.json")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"b.yaml", "orders/x.json", "a.json", "orders/a.json"} {
				require.NoError(t, s.Put(ctx, k, []byte(k)))
			}

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"a.json", "b.yaml", "orders/a.json", "orders/x.json"}, all)

			orders, err := s.List(ctx, "orders/")
			require.NoError(t, err)
			assert.Equal(t, []string{"orders/a.json", "orders/x.json"}, orders)
		})
	}
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "  ", "../escape.json", "/abs.json", "a/../../b"} {
				assert.Error(t, s.Put(ctx, key, []byte("x")), "key %q", key)
			}
		})
	}
}

func TestFilesystem_WritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewFilesystem(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "nested/q.yaml", []byte("class: Order\n")))

	data, err := os.ReadFile(filepath.Join(root, "nested", "q.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "class: Order\n", string(data))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	s, err = Open(ctx, Config{Driver: "MEMORY"})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	_, err = Open(ctx, Config{Driver: "s3"})
	assert.ErrorContains(t, err, "bucket")

	_, err = Open(ctx, Config{Driver: "gcs"})
	assert.ErrorContains(t, err, "unknown blob driver")
}

func TestNewS3_Configures(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	s, err := NewS3(context.Background(), S3Config{
		Bucket:    "chains",
		Endpoint:  "http://127.0.0.1:9000",
		PathStyle: true,
		Prefix:    "exports/",
	})
	require.NoError(t, err)
	assert.Equal(t, DriverS3, s.Driver())

	key, err := s.objectKey("q.json")
	require.NoError(t, err)
	assert.Equal(t, "exports/q.json", key)
	assert.Equal(t, "application/json", contentType(key))
	assert.Equal(t, "application/yaml", contentType("q.yml"))
}
