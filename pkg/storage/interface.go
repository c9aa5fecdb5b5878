package storage

import (
	"context"
	"fmt"
	"time"
)

// Storage resolves stored object keys into client-reachable URLs.
type Storage interface {
	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL for accessing the content.
	// For local storage, this returns a URL under the configured base URL.
	// For S3, this returns a presigned URL valid for the specified duration.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Type  string      `mapstructure:"type"` // "local", "s3"
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// New creates a Storage based on the configuration.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
