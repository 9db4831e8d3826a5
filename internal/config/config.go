// Package config loads querychain settings from defaults, an optional
// YAML file and QUERYCHAIN_* environment variables, in that order of
// increasing precedence. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/querychain/internal/blob"
	"github.com/roach88/querychain/internal/querysql"
	"github.com/roach88/querychain/internal/store"
)

// EnvPrefix is prepended to every environment variable name.
// QUERYCHAIN_BLOB_S3_BUCKET sets blob.s3.bucket.
const EnvPrefix = "QUERYCHAIN"

// DefaultFileName is looked up in the working directory when no config
// file is given explicitly.
const DefaultFileName = "querychain"

// Config is the complete runtime configuration.
type Config struct {
	Database string     `mapstructure:"database"` // saved-query store path
	Driver   string     `mapstructure:"driver"`   // SQL provider driver: sqlite3 or pgx
	DSN      string     `mapstructure:"dsn"`      // SQL provider connection string
	Catalog  string     `mapstructure:"catalog"`  // directory of CUE resource files
	Format   string     `mapstructure:"format"`   // CLI output: text or json
	Workers  int        `mapstructure:"workers"`  // batch replay pool size
	Log      LogConfig  `mapstructure:"log"`
	Blob     BlobConfig `mapstructure:"blob"`

	// File is the config file that was read, or "" when none was found.
	File string `mapstructure:"-"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// BlobConfig selects the export store.
type BlobConfig struct {
	Driver string   `mapstructure:"driver"` // fs, s3 or memory
	Dir    string   `mapstructure:"dir"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config mirrors blob.S3Config.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"pathstyle"`
	Prefix    string `mapstructure:"prefix"`
}

var defaults = map[string]any{
	"database":          "querychain.db",
	"driver":            "sqlite3",
	"dsn":               "",
	"catalog":           "catalog",
	"format":            "text",
	"workers":           4,
	"log.level":         "info",
	"log.format":        "text",
	"blob.driver":       "fs",
	"blob.dir":          "exports",
	"blob.s3.bucket":    "",
	"blob.s3.region":    "us-east-1",
	"blob.s3.endpoint":  "",
	"blob.s3.pathstyle": false,
	"blob.s3.prefix":    "",
}

// Load reads the configuration. An empty path looks for querychain.yaml in
// the working directory and tolerates its absence; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: "querychain.db",
		Driver:   "sqlite3",
		Catalog:  "catalog",
		Format:   "text",
		Workers:  4,
		Log:      LogConfig{Level: "info", Format: "text"},
		Blob: BlobConfig{
			Driver: "fs",
			Dir:    "exports",
			S3:     S3Config{Region: "us-east-1"},
		},
	}
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	if _, err := querysql.ParseDialect(c.Driver); err != nil {
		errs = append(errs, fmt.Errorf("driver: %w", err))
	}
	switch c.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("format: must be text or json, got %q", c.Format))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers: must be at least 1, got %d", c.Workers))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("blob.driver: must be fs, s3 or memory, got %q", c.Blob.Driver))
	}
	if c.Blob.Driver == string(blob.DriverS3) && c.Blob.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("blob.s3.bucket: required when blob.driver is s3"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ProviderDSN returns the DSN the SQL provider should open. With no DSN
// set, sqlite3 reads resources from the saved-query database file, opened
// with the same connection settings as the store.
func (c *Config) ProviderDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if dialect, err := querysql.ParseDialect(c.Driver); err == nil && dialect == querysql.DialectSQLite {
		return store.DSN(c.Database)
	}
	return ""
}

// BlobStore converts the blob section to the blob package's form.
func (c BlobConfig) BlobStore() blob.Config {
	return blob.Config{
		Driver: c.Driver,
		Dir:    c.Dir,
		S3: blob.S3Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			PathStyle: c.S3.PathStyle,
			Prefix:    c.S3.Prefix,
		},
	}
}

// Logger builds the slog logger described by c, writing to w.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}
