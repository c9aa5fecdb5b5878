// Package media turns stored profile-picture keys into client URLs.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/pkg/storage"
)

// Signer resolves a profile-picture key to a URL the client can fetch.
type Signer interface {
	SignProfilePictureURL(ctx context.Context, key string) (string, error)
}

// StorageSigner signs keys through a storage backend.
type StorageSigner struct {
	storage storage.Storage
	expiry  time.Duration
}

// NewStorageSigner creates a signer issuing URLs valid for expiry.
func NewStorageSigner(s storage.Storage, expiry time.Duration) *StorageSigner {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &StorageSigner{storage: s, expiry: expiry}
}

// SignProfilePictureURL returns "" for an empty key.
func (s *StorageSigner) SignProfilePictureURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.storage.GetURL(ctx, key, s.expiry)
	if err != nil {
		return "", fmt.Errorf("sign profile picture %s: %w", key, err)
	}
	return url, nil
}

var _ Signer = (*StorageSigner)(nil)
