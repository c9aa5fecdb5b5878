package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// listRow is the scan target shared by every listing query.
type listRow struct {
	ID                uint64
	CreatedAt         time.Time
	UserID            string
	Username          string
	DisplayName       string
	ProfilePictureKey string
}

const listColumns = "e.id AS id, e.created_at AS created_at, p.id AS user_id, " +
	"p.username AS username, p.display_name AS display_name, p.profile_picture_key AS profile_picture_key"

// edgeQuery describes one listing: the edge table, the SQL expression
// yielding the other user's id, and the owner filter.
type edgeQuery struct {
	table     string
	other     string
	otherArgs []interface{}
	where     string
	args      []interface{}
}

func directed(table, other, ownerCol, userID string) edgeQuery {
	return edgeQuery{table: table, other: other, where: ownerCol + " = ?", args: []interface{}{userID}}
}

// listEdges runs one keyset page over the edge table joined to the other
// user's profile.
func (s *GormStore) listEdges(ctx context.Context, eq edgeQuery, q ListQuery) ([]domain.RelationshipEntry, error) {
	db := s.db.WithContext(ctx).
		Table(eq.table+" AS e").
		Select(listColumns).
		Joins("JOIN profiles p ON p.id = "+eq.other, eq.otherArgs...).
		Where(eq.where, eq.args...)
	db = applyKeyset(db, q)

	var rows []listRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]domain.RelationshipEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.RelationshipEntry{
			ID:                r.ID,
			UserID:            r.UserID,
			Username:          r.Username,
			DisplayName:       r.DisplayName,
			ProfilePictureKey: r.ProfilePictureKey,
			CreatedAt:         r.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// applyKeyset bounds the query at the cursor (inclusive) and fetches one
// row past the page.
func applyKeyset(db *gorm.DB, q ListQuery) *gorm.DB {
	if q.Cursor != nil {
		db = db.Where("(e.created_at < ? OR (e.created_at = ? AND e.id <= ?))",
			q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}
	return db.Order("e.created_at DESC").Order("e.id DESC").Limit(q.Limit + 1)
}

func (s *GormStore) ListFollowers(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error) {
	return s.listEdges(ctx, directed("follows", "e.sender_id", "e.recipient_id", userID), q)
}

func (s *GormStore) ListFollowing(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error) {
	return s.listEdges(ctx, directed("follows", "e.recipient_id", "e.sender_id", userID), q)
}

func (s *GormStore) ListFriends(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error) {
	return s.listEdges(ctx, edgeQuery{
		table:     "friends",
		other:     "(CASE WHEN e.user_a_id = ? THEN e.user_b_id ELSE e.user_a_id END)",
		otherArgs: []interface{}{userID},
		where:     "(e.user_a_id = ? OR e.user_b_id = ?)",
		args:      []interface{}{userID, userID},
	}, q)
}

func (s *GormStore) ListFollowRequests(ctx context.Context, userID string, dir domain.Direction, q ListQuery) ([]domain.RelationshipEntry, error) {
	if dir == domain.DirectionOutgoing {
		return s.listEdges(ctx, directed("follow_requests", "e.recipient_id", "e.sender_id", userID), q)
	}
	return s.listEdges(ctx, directed("follow_requests", "e.sender_id", "e.recipient_id", userID), q)
}

func (s *GormStore) ListFriendRequests(ctx context.Context, userID string, dir domain.Direction, q ListQuery) ([]domain.RelationshipEntry, error) {
	if dir == domain.DirectionOutgoing {
		return s.listEdges(ctx, directed("friend_requests", "e.recipient_id", "e.sender_id", userID), q)
	}
	return s.listEdges(ctx, directed("friend_requests", "e.sender_id", "e.recipient_id", userID), q)
}

func (s *GormStore) ListBlocked(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error) {
	return s.listEdges(ctx, directed("blocks", "e.blocked_id", "e.blocker_id", userID), q)
}
