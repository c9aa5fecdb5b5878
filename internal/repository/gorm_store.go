package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a GormStore.
type Option func(*GormStore)

// WithClock overrides the clock used for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *GormStore) { s.now = now }
}

// NewGormStore creates a new GORM-backed relationship store.
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates every relationship table.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(domain.AllModels()...)
}

// WithTx runs fn inside a database transaction.
func (s *GormStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db, now: s.now})
	})
	return translateError(err)
}

// gormTx implements Tx on top of an open *gorm.DB transaction.
type gormTx struct {
	db  *gorm.DB
	now func() time.Time
}

func (t *gormTx) conn(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

// exists reports whether at least one row of model matches the condition.
func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

// deleteWhere removes matching rows and reports whether any were removed.
func deleteWhere(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	res := db.Where(query, args...).Delete(model)
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// canonicalPair orders two user ids the way friend rows are stored.
func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Ensure interfaces are satisfied at compile time.
var (
	_ Store = (*GormStore)(nil)
	_ Tx    = (*gormTx)(nil)
)
