package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

func (t *gormTx) AdjustCounter(ctx context.Context, userID string, column domain.CounterColumn, delta int64) error {
	if !column.Valid() {
		return fmt.Errorf("unknown counter column %q", column)
	}
	if delta == 0 {
		return nil
	}
	col := string(column)
	now := t.now()
	db := t.conn(ctx)

	if delta > 0 {
		m := domain.UserCounterModel{UserID: userID, UpdatedAt: now}
		switch column {
		case domain.CounterFollowers:
			m.Followers = delta
		case domain.CounterFollowing:
			m.Following = delta
		case domain.CounterFriends:
			m.Friends = delta
		}
		err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				col:          gorm.Expr("user_counters."+col+" + ?", delta),
				"updated_at": now,
			}),
		}).Create(&m).Error
		return translateError(err)
	}

	// A missing row already reads as zero, so there is nothing to decrement.
	by := -delta
	err := db.Model(&domain.UserCounterModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			col:          gorm.Expr("CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END", by, by),
			"updated_at": now,
		}).Error
	return translateError(err)
}

func (t *gormTx) LockCounters(ctx context.Context, userID string) (*domain.Counters, error) {
	var m domain.UserCounterModel
	err := t.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Counters{UserID: userID}, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return toCounters(m), nil
}

func (t *gormTx) SetCounters(ctx context.Context, c domain.Counters) error {
	m := domain.UserCounterModel{
		UserID:    c.UserID,
		Followers: c.Followers,
		Following: c.Following,
		Friends:   c.Friends,
		UpdatedAt: t.now(),
	}
	err := t.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"followers", "following", "friends", "updated_at"}),
	}).Create(&m).Error
	return translateError(err)
}

// GetCounters reads the denormalized counts. A missing row reads as zeros.
func (s *GormStore) GetCounters(ctx context.Context, userID string) (*domain.Counters, error) {
	var m domain.UserCounterModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Counters{UserID: userID}, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return toCounters(m), nil
}

func toCounters(m domain.UserCounterModel) *domain.Counters {
	return &domain.Counters{
		UserID:    m.UserID,
		Followers: m.Followers,
		Following: m.Following,
		Friends:   m.Friends,
	}
}
