// Package testdb provides throwaway sqlite databases for tests.
package testdb

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/database"
)

// New opens a migrated in-memory sqlite database private to the test.
// The pool holds one connection, so code under test must not use the
// outer handle while a transaction is open.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.AllModels()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedProfiles inserts public profiles with the given ids.
func SeedProfiles(t testing.TB, db *gorm.DB, ids ...string) {
	t.Helper()
	now := time.Now().UTC()
	for _, id := range ids {
		require.NoError(t, db.Create(&domain.ProfileModel{
			ID:        id,
			Username:  id,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error)
	}
}

// SetPrivate marks a seeded profile private.
func SetPrivate(t testing.TB, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Model(&domain.ProfileModel{}).Where("id = ?", id).Update("is_private", true).Error)
}

// Clock returns a strictly increasing clock starting at start, one second
// per call, so rows created in sequence sort deterministically.
func Clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start.UTC()
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}
