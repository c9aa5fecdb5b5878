package service

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/audit"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/notifier"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/reconciler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
)

// followService implements FollowService.
type followService struct {
	*machine
}

// NewFollowService creates a new FollowService instance.
func NewFollowService(repo repository.Store, counters *reconciler.Counters, cache store.CountsStore, n notifier.Notifier, opts ...Option) FollowService {
	return &followService{machine: newMachine(repo, counters, cache, n, opts...)}
}

// FollowUser follows recipientID, or requests to when the profile is private.
func (s *followService) FollowUser(ctx context.Context, senderID, recipientID string) (state domain.FollowState, err error) {
	defer func(start time.Time) { finish(ctx, "follow", start, err, senderID, recipientID) }(time.Now())

	if senderID == recipientID {
		return "", domain.ErrCannotFollowSelf
	}

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		recipient, err := s.requireProfile(ctx, tx, recipientID)
		if err != nil {
			return err
		}
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		state, err = s.follow(ctx, tx, senderID, recipient)
		return err
	})
	if err != nil {
		return "", err
	}

	if state == domain.FollowStateFollowing {
		s.invalidate(ctx, senderID, recipientID)
		audit.Log(ctx, audit.ActionFollow, senderID, recipientID, "user followed")
		s.notify(ctx, senderID, recipientID, notifier.EventFollow)
	} else {
		audit.Log(ctx, audit.ActionFollowRequest, senderID, recipientID, "follow request sent")
		s.notify(ctx, senderID, recipientID, notifier.EventFollowRequest)
	}
	return state, nil
}

// UnfollowUser removes senderID's follow edge. A friendship between the
// pair ends with it.
func (s *followService) UnfollowUser(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "unfollow", start, err, senderID, recipientID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		deleted, err := s.deleteFollowEdge(ctx, tx, senderID, recipientID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFollowing
		}
		return s.breakFriendship(ctx, tx, senderID, recipientID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, senderID, recipientID)
	audit.Log(ctx, audit.ActionUnfollow, senderID, recipientID, "user unfollowed")
	return nil
}

// RemoveFollower removes followerID's edge to userID from userID's side.
func (s *followService) RemoveFollower(ctx context.Context, userID, followerID string) (err error) {
	defer func(start time.Time) { finish(ctx, "remove_follower", start, err, userID, followerID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, userID, followerID); err != nil {
			return err
		}
		deleted, err := s.deleteFollowEdge(ctx, tx, followerID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrFollowerNotFound
		}
		return s.breakFriendship(ctx, tx, userID, followerID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID, followerID)
	audit.Log(ctx, audit.ActionRemoveFollower, userID, followerID, "follower removed")
	return nil
}

// AcceptFollowRequest turns senderID's pending request into a follow edge.
// recipientID is the accepting user.
func (s *followService) AcceptFollowRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "accept_follow_request", start, err, recipientID, senderID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		deleted, err := tx.DeleteFollowRequest(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrRequestNotFound
		}
		return s.createFollowEdge(ctx, tx, senderID, recipientID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, senderID, recipientID)
	audit.Log(ctx, audit.ActionAcceptFollowRequest, recipientID, senderID, "follow request accepted")
	s.notify(ctx, recipientID, senderID, notifier.EventFollowRequestAccepted)
	return nil
}

// DeclineFollowRequest drops senderID's pending request. recipientID is the
// declining user.
func (s *followService) DeclineFollowRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "decline_follow_request", start, err, recipientID, senderID) }(time.Now())

	if err = s.dropFollowRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionDeclineFollowRequest, recipientID, senderID, "follow request declined")
	return nil
}

// CancelFollowRequest withdraws senderID's own pending request.
func (s *followService) CancelFollowRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "cancel_follow_request", start, err, senderID, recipientID) }(time.Now())

	if err = s.dropFollowRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionCancelFollowRequest, senderID, recipientID, "follow request cancelled")
	return nil
}

func (s *followService) dropFollowRequest(ctx context.Context, senderID, recipientID string) error {
	return s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		deleted, err := tx.DeleteFollowRequest(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrRequestNotFound
		}
		return nil
	})
}

var _ FollowService = (*followService)(nil)
