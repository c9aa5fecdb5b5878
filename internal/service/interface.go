package service

import (
	"context"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// PageRequest carries the opaque cursor and page size of a listing call.
type PageRequest struct {
	Cursor string
	Limit  int
}

// FollowService runs the directed follow state machine.
type FollowService interface {
	// FollowUser creates an edge for public targets and a request for private ones.
	FollowUser(ctx context.Context, senderID, recipientID string) (domain.FollowState, error)
	UnfollowUser(ctx context.Context, senderID, recipientID string) error
	RemoveFollower(ctx context.Context, userID, followerID string) error
	AcceptFollowRequest(ctx context.Context, senderID, recipientID string) error
	DeclineFollowRequest(ctx context.Context, senderID, recipientID string) error
	CancelFollowRequest(ctx context.Context, senderID, recipientID string) error
}

// FriendService runs the friend state machine.
type FriendService interface {
	// FriendUser sends a request, or accepts the recipient's pending one.
	FriendUser(ctx context.Context, senderID, recipientID string) (domain.FriendState, error)
	AcceptFriendRequest(ctx context.Context, senderID, recipientID string) error
	DeclineFriendRequest(ctx context.Context, senderID, recipientID string) error
	CancelFriendRequest(ctx context.Context, senderID, recipientID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
}

// BlockService maintains blocks and clears relations they exclude.
type BlockService interface {
	BlockUser(ctx context.Context, blockerID, blockedID string) error
	UnblockUser(ctx context.Context, blockerID, blockedID string) error
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
}

// ListService serves keyset-paginated relationship listings.
type ListService interface {
	ListFollowers(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error)
	ListFollowing(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error)
	ListFriends(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error)
	ListFollowRequests(ctx context.Context, userID string, dir domain.Direction, req PageRequest) (*domain.EntryPage, error)
	ListFriendRequests(ctx context.Context, userID string, dir domain.Direction, req PageRequest) (*domain.EntryPage, error)
	ListBlocked(ctx context.Context, userID string, req PageRequest) (*domain.EntryPage, error)
	RelationStatus(ctx context.Context, viewerID, targetID string) (*domain.RelationStatus, error)
}

// CountsService serves cached relationship counts.
type CountsService interface {
	GetCounts(ctx context.Context, userID string) (*domain.Counters, error)
	HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error
}

// ProfileService maintains the profile mirror consulted by the privacy gate.
type ProfileService interface {
	UpsertProfile(ctx context.Context, p domain.Profile) error
	SetPrivacy(ctx context.Context, userID string, private bool) error
	GetProfile(ctx context.Context, viewerID, targetID string) (*domain.ProfileView, error)
}
