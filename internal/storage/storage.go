// Package storage persists rendered credential images behind a key-addressed store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrObjectNotFound is returned when no object exists for a key.
var ErrObjectNotFound = errors.New("storage: object not found")

// ImageStore persists image artifacts addressable by key.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures an ImageStore backend.
type Config struct {
	Driver string
	Local  LocalConfig
	S3     S3Config
}

// New builds the ImageStore named by cfg.Driver.
func New(ctx context.Context, cfg Config) (ImageStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "local", "filesystem":
		return NewLocalStore(cfg.Local)
	case "s3", "minio":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

// cleanKey normalises a key and rejects traversal outside the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.New("storage: key is required")
	}
	if cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("storage: key %q is not canonical", key)
	}
	return cleaned, nil
}
