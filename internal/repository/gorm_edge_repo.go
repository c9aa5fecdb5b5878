package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

const (
	pairCond   = "sender_id = ? AND recipient_id = ?"
	friendCond = "user_a_id = ? AND user_b_id = ?"
	blockCond  = "blocker_id = ? AND blocked_id = ?"
)

func (t *gormTx) FollowExists(ctx context.Context, senderID, recipientID string) (bool, error) {
	return exists(t.conn(ctx), &domain.FollowModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) CreateFollow(ctx context.Context, senderID, recipientID string) error {
	m := domain.FollowModel{SenderID: senderID, RecipientID: recipientID, CreatedAt: t.now()}
	return translateError(t.conn(ctx).Omit(clause.Associations).Create(&m).Error)
}

func (t *gormTx) DeleteFollow(ctx context.Context, senderID, recipientID string) (bool, error) {
	return deleteWhere(t.conn(ctx), &domain.FollowModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) FollowRequestExists(ctx context.Context, senderID, recipientID string) (bool, error) {
	return exists(t.conn(ctx), &domain.FollowRequestModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) CreateFollowRequest(ctx context.Context, senderID, recipientID string) error {
	m := domain.FollowRequestModel{SenderID: senderID, RecipientID: recipientID, CreatedAt: t.now()}
	return translateError(t.conn(ctx).Omit(clause.Associations).Create(&m).Error)
}

func (t *gormTx) DeleteFollowRequest(ctx context.Context, senderID, recipientID string) (bool, error) {
	return deleteWhere(t.conn(ctx), &domain.FollowRequestModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) FriendExists(ctx context.Context, userA, userB string) (bool, error) {
	a, b := canonicalPair(userA, userB)
	return exists(t.conn(ctx), &domain.FriendModel{}, friendCond, a, b)
}

// CreateFriend stores the pair in canonical order.
func (t *gormTx) CreateFriend(ctx context.Context, userA, userB string) error {
	a, b := canonicalPair(userA, userB)
	m := domain.FriendModel{UserAID: a, UserBID: b, CreatedAt: t.now()}
	return translateError(t.conn(ctx).Omit(clause.Associations).Create(&m).Error)
}

func (t *gormTx) DeleteFriend(ctx context.Context, userA, userB string) (bool, error) {
	a, b := canonicalPair(userA, userB)
	return deleteWhere(t.conn(ctx), &domain.FriendModel{}, friendCond, a, b)
}

func (t *gormTx) FriendRequestExists(ctx context.Context, senderID, recipientID string) (bool, error) {
	return exists(t.conn(ctx), &domain.FriendRequestModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) CreateFriendRequest(ctx context.Context, senderID, recipientID string) error {
	m := domain.FriendRequestModel{SenderID: senderID, RecipientID: recipientID, CreatedAt: t.now()}
	return translateError(t.conn(ctx).Omit(clause.Associations).Create(&m).Error)
}

func (t *gormTx) DeleteFriendRequest(ctx context.Context, senderID, recipientID string) (bool, error) {
	return deleteWhere(t.conn(ctx), &domain.FriendRequestModel{}, pairCond, senderID, recipientID)
}

func (t *gormTx) BlockExists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return exists(t.conn(ctx), &domain.BlockModel{}, blockCond, blockerID, blockedID)
}

func (t *gormTx) AnyBlockBetween(ctx context.Context, userA, userB string) (bool, error) {
	return anyBlockBetween(t.conn(ctx), userA, userB)
}

func (t *gormTx) CreateBlock(ctx context.Context, blockerID, blockedID string) error {
	m := domain.BlockModel{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: t.now()}
	return translateError(t.conn(ctx).Omit(clause.Associations).Create(&m).Error)
}

func (t *gormTx) DeleteBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return deleteWhere(t.conn(ctx), &domain.BlockModel{}, blockCond, blockerID, blockedID)
}

func (t *gormTx) CountFollowers(ctx context.Context, userID string) (int64, error) {
	return count(t.conn(ctx), &domain.FollowModel{}, "recipient_id = ?", userID)
}

func (t *gormTx) CountFollowing(ctx context.Context, userID string) (int64, error) {
	return count(t.conn(ctx), &domain.FollowModel{}, "sender_id = ?", userID)
}

func (t *gormTx) CountFriends(ctx context.Context, userID string) (int64, error) {
	return count(t.conn(ctx), &domain.FriendModel{}, "user_a_id = ? OR user_b_id = ?", userID, userID)
}

func anyBlockBetween(db *gorm.DB, userA, userB string) (bool, error) {
	return exists(db, &domain.BlockModel{},
		"(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
		userA, userB, userB, userA)
}

func count(db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}
