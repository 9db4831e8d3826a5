// Package blob stores exported chain documents outside the saved-query
// database, on the local filesystem or in an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Driver identifies a blob storage backend.
type Driver string

const (
	// DriverFilesystem stores blobs as files under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores blobs in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps blobs in process memory (tests).
	DriverMemory Driver = "memory"
)

// ErrNotFound is returned by Get when no blob exists under a key.
var ErrNotFound = errors.New("blob not found")

// Store is the minimal surface the export and import commands need.
type Store interface {
	// Put writes data under key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the blob under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Driver() Driver
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	Dir    string
	S3     S3Config
}

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q: must be fs, s3 or memory", cfg.Driver)
	}
}

// sanitizeKey rejects keys that would escape the store root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q: contains '..'", key)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q: absolute", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}
