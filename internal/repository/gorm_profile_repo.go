package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

func (t *gormTx) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return getProfile(t.conn(ctx), userID)
}

// GetProfile returns the profile or domain.ErrProfileNotFound.
func (s *GormStore) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return getProfile(s.db.WithContext(ctx), userID)
}

func getProfile(db *gorm.DB, userID string) (*domain.Profile, error) {
	var m domain.ProfileModel
	if err := db.Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, translateError(err)
	}
	return toProfile(m), nil
}

// UpsertProfile inserts the profile or overwrites its mutable fields.
func (s *GormStore) UpsertProfile(ctx context.Context, p domain.Profile) error {
	now := s.now()
	m := domain.ProfileModel{
		ID:                p.ID,
		Username:          p.Username,
		DisplayName:       p.DisplayName,
		IsPrivate:         p.IsPrivate,
		ProfilePictureKey: p.ProfilePictureKey,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "is_private", "profile_picture_key", "updated_at"}),
	}).Create(&m).Error
	return translateError(err)
}

// ListProfileIDs returns up to limit profile ids greater than afterID.
func (s *GormStore) ListProfileIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&domain.ProfileModel{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// SetPrivacy flips the private flag consulted by the follow gate.
func (s *GormStore) SetPrivacy(ctx context.Context, userID string, private bool) error {
	res := s.db.WithContext(ctx).Model(&domain.ProfileModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_private": private,
			"updated_at": s.now(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// IsBlocked reports whether either user blocks the other.
func (s *GormStore) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	return anyBlockBetween(s.db.WithContext(ctx), userA, userB)
}

// IsFollowing reports whether senderID follows recipientID.
func (s *GormStore) IsFollowing(ctx context.Context, senderID, recipientID string) (bool, error) {
	return exists(s.db.WithContext(ctx), &domain.FollowModel{}, pairCond, senderID, recipientID)
}

func toProfile(m domain.ProfileModel) *domain.Profile {
	return &domain.Profile{
		ID:                m.ID,
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		IsPrivate:         m.IsPrivate,
		ProfilePictureKey: m.ProfilePictureKey,
		CreatedAt:         m.CreatedAt,
	}
}
