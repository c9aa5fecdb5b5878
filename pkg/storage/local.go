package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage implements Storage for files served from a local directory.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"` // public prefix the files are served under
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	// Ensure base path exists
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStorage{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// cleanKey normalises a key and rejects ones that escape basePath.
func cleanKey(key string) (string, error) {
	k := filepath.Clean(filepath.FromSlash(key))
	if k == "." || k == ".." || strings.HasPrefix(k, ".."+string(os.PathSeparator)) || filepath.IsAbs(k) {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return k, nil
}

// Exists checks if content with the given key exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.basePath, k))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat file: %w", err)
}

// GetURL returns a URL under the base URL, or a file:// URL when none is set.
// Local files do not expire.
func (s *LocalStorage) GetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.baseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.basePath, k))}).String(), nil
	}
	return s.baseURL + "/" + filepath.ToSlash(k), nil
}
