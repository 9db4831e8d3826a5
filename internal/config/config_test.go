package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/blob"
	"github.com/roach88/querychain/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want, cfg)
	assert.Empty(t, cfg.File)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, "querychain.yaml", `
database: saved.db
workers: 8
log:
  level: debug
blob:
  driver: s3
  s3:
    bucket: chains
    pathstyle: true
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "saved.db", cfg.Database)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.Equal(t, "chains", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.Equal(t, "us-east-1", cfg.Blob.S3.Region)
	assert.Equal(t, "querychain.yaml", filepath.Base(cfg.File))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "driver: pgx\ndsn: postgres://file\nworkers: 2\n")

	t.Setenv("QUERYCHAIN_DSN", "postgres://env")
	t.Setenv("QUERYCHAIN_WORKERS", "16")
	t.Setenv("QUERYCHAIN_BLOB_S3_PREFIX", "exports/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://env", cfg.DSN)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "exports/", cfg.Blob.S3.Prefix)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "workers: [1, 2\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Driver = "oracle" }, "driver"},
		{"format", func(c *Config) { c.Format = "xml" }, "format"},
		{"workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "logfmt" }, "log.format"},
		{"blob driver", func(c *Config) { c.Blob.Driver = "gcs" }, "blob.driver"},
		{"s3 bucket", func(c *Config) { c.Blob.Driver = "s3" }, "blob.s3.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	require.NoError(t, Default().Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"
	cfg.Workers = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
	assert.Contains(t, err.Error(), "workers")
}

func TestProviderDSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t, store.DSN("querychain.db"), cfg.ProviderDSN())

	cfg.DSN = "file:orders.db"
	assert.Equal(t, "file:orders.db", cfg.ProviderDSN())

	cfg = Default()
	cfg.Driver = "pgx"
	assert.Equal(t, "", cfg.ProviderDSN())
}

func TestBlobStore(t *testing.T) {
	cfg := BlobConfig{
		Driver: "s3",
		S3:     S3Config{Bucket: "b", Region: "eu-west-1", Endpoint: "http://minio:9000", PathStyle: true, Prefix: "p/"},
	}
	assert.Equal(t, blob.Config{
		Driver: "s3",
		S3:     blob.S3Config{Bucket: "b", Region: "eu-west-1", Endpoint: "http://minio:9000", PathStyle: true, Prefix: "p/"},
	}, cfg.BlobStore())
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "resource", "Order")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"resource":"Order"`)

	_, err = LogConfig{Level: "verbose"}.Logger(&buf)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
