package repository

import (
	"context"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/pagination"
)

// Store is the relationship store. Mutations happen only through the Tx
// handed to WithTx; Reader covers read paths that need no transaction.
type Store interface {
	// WithTx runs fn in one transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Reader
}

// Tx is the explicit transaction handle threaded through every mutation.
// It enforces uniqueness and self-reference through storage constraints
// only; cross-kind invariants are the caller's responsibility.
type Tx interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)

	FollowExists(ctx context.Context, senderID, recipientID string) (bool, error)
	CreateFollow(ctx context.Context, senderID, recipientID string) error
	DeleteFollow(ctx context.Context, senderID, recipientID string) (bool, error)

	FollowRequestExists(ctx context.Context, senderID, recipientID string) (bool, error)
	CreateFollowRequest(ctx context.Context, senderID, recipientID string) error
	DeleteFollowRequest(ctx context.Context, senderID, recipientID string) (bool, error)

	// Friend operations accept the pair in any order.
	FriendExists(ctx context.Context, userA, userB string) (bool, error)
	CreateFriend(ctx context.Context, userA, userB string) error
	DeleteFriend(ctx context.Context, userA, userB string) (bool, error)

	FriendRequestExists(ctx context.Context, senderID, recipientID string) (bool, error)
	CreateFriendRequest(ctx context.Context, senderID, recipientID string) error
	DeleteFriendRequest(ctx context.Context, senderID, recipientID string) (bool, error)

	BlockExists(ctx context.Context, blockerID, blockedID string) (bool, error)
	AnyBlockBetween(ctx context.Context, userA, userB string) (bool, error)
	CreateBlock(ctx context.Context, blockerID, blockedID string) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) (bool, error)

	// AdjustCounter adds delta to one counter column. Negative results clamp at zero.
	AdjustCounter(ctx context.Context, userID string, column domain.CounterColumn, delta int64) error
	// LockCounters reads the counter row FOR UPDATE. A missing row reads as zeros.
	LockCounters(ctx context.Context, userID string) (*domain.Counters, error)
	SetCounters(ctx context.Context, c domain.Counters) error

	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
	CountFriends(ctx context.Context, userID string) (int64, error)
}

// ListQuery bounds one keyset page. Listing methods return up to Limit+1
// rows so the caller can detect a following page.
type ListQuery struct {
	Cursor *pagination.Cursor
	Limit  int
}

// Reader serves listings, counts and profile lookups.
type Reader interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p domain.Profile) error
	SetPrivacy(ctx context.Context, userID string, private bool) error
	// ListProfileIDs pages through profile ids in ascending order.
	ListProfileIDs(ctx context.Context, afterID string, limit int) ([]string, error)

	GetCounters(ctx context.Context, userID string) (*domain.Counters, error)
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
	IsFollowing(ctx context.Context, senderID, recipientID string) (bool, error)
	RelationStatuses(ctx context.Context, viewerID string, targetIDs []string) (map[string]domain.RelationStatus, error)

	ListFollowers(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error)
	ListFollowing(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error)
	ListFriends(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error)
	ListFollowRequests(ctx context.Context, userID string, dir domain.Direction, q ListQuery) ([]domain.RelationshipEntry, error)
	ListFriendRequests(ctx context.Context, userID string, dir domain.Direction, q ListQuery) ([]domain.RelationshipEntry, error)
	ListBlocked(ctx context.Context, userID string, q ListQuery) ([]domain.RelationshipEntry, error)
}
