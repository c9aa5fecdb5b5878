package service

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/audit"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/notifier"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/reconciler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
)

// friendService implements FriendService.
type friendService struct {
	*machine
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(repo repository.Store, counters *reconciler.Counters, cache store.CountsStore, n notifier.Notifier, opts ...Option) FriendService {
	return &friendService{machine: newMachine(repo, counters, cache, n, opts...)}
}

// FriendUser sends a friend request to recipientID. If recipientID already
// asked senderID, the pending request is accepted instead.
func (s *friendService) FriendUser(ctx context.Context, senderID, recipientID string) (state domain.FriendState, err error) {
	defer func(start time.Time) { finish(ctx, "friend", start, err, senderID, recipientID) }(time.Now())

	if senderID == recipientID {
		return "", domain.ErrCannotFriendSelf
	}

	// Set when sending the request also started a follow.
	var followState domain.FollowState

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		recipient, err := s.requireProfile(ctx, tx, recipientID)
		if err != nil {
			return err
		}
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}

		friends, err := tx.FriendExists(ctx, senderID, recipientID)
		if err != nil {
			return fmt.Errorf("check friend: %w", err)
		}
		if friends {
			return domain.ErrAlreadyFriends
		}

		outgoing, err := tx.FriendRequestExists(ctx, senderID, recipientID)
		if err != nil {
			return fmt.Errorf("check friend request: %w", err)
		}
		if outgoing {
			return domain.ErrRequestAlreadySent
		}

		incoming, err := tx.FriendRequestExists(ctx, recipientID, senderID)
		if err != nil {
			return fmt.Errorf("check friend request: %w", err)
		}
		if incoming {
			state = domain.FriendStateFriends
			return s.acceptFriendRequest(ctx, tx, recipientID, senderID)
		}

		if err := tx.CreateFriendRequest(ctx, senderID, recipientID); err != nil {
			return duplicateAs(err, domain.ErrRequestAlreadySent)
		}
		state = domain.FriendStateRequested

		following, err := tx.FollowExists(ctx, senderID, recipientID)
		if err != nil {
			return fmt.Errorf("check follow: %w", err)
		}
		requested, err := tx.FollowRequestExists(ctx, senderID, recipientID)
		if err != nil {
			return fmt.Errorf("check follow request: %w", err)
		}
		if following || requested {
			return nil
		}
		followState, err = s.follow(ctx, tx, senderID, recipient)
		return err
	})
	if err != nil {
		return "", err
	}

	if state == domain.FriendStateFriends {
		s.invalidate(ctx, senderID, recipientID)
		audit.Log(ctx, audit.ActionAcceptFriendRequest, senderID, recipientID, "incoming friend request accepted")
		s.notify(ctx, senderID, recipientID, notifier.EventFriendRequestAccepted)
		return state, nil
	}

	audit.Log(ctx, audit.ActionFriendRequest, senderID, recipientID, "friend request sent")
	s.notify(ctx, senderID, recipientID, notifier.EventFriendRequest)
	switch followState {
	case domain.FollowStateFollowing:
		s.invalidate(ctx, senderID, recipientID)
		audit.Log(ctx, audit.ActionFollow, senderID, recipientID, "user followed with friend request")
		s.notify(ctx, senderID, recipientID, notifier.EventFollow)
	case domain.FollowStateRequested:
		audit.Log(ctx, audit.ActionFollowRequest, senderID, recipientID, "follow request sent with friend request")
		s.notify(ctx, senderID, recipientID, notifier.EventFollowRequest)
	}
	return state, nil
}

// AcceptFriendRequest accepts senderID's request. recipientID is the
// accepting user.
func (s *friendService) AcceptFriendRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "accept_friend_request", start, err, recipientID, senderID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		return s.acceptFriendRequest(ctx, tx, senderID, recipientID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, senderID, recipientID)
	audit.Log(ctx, audit.ActionAcceptFriendRequest, recipientID, senderID, "friend request accepted")
	s.notify(ctx, recipientID, senderID, notifier.EventFriendRequestAccepted)
	return nil
}

// DeclineFriendRequest drops senderID's pending request. Follows between
// the pair are unaffected.
func (s *friendService) DeclineFriendRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "decline_friend_request", start, err, recipientID, senderID) }(time.Now())

	if err = s.dropFriendRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionDeclineFriendRequest, recipientID, senderID, "friend request declined")
	return nil
}

// CancelFriendRequest withdraws senderID's own pending request.
func (s *friendService) CancelFriendRequest(ctx context.Context, senderID, recipientID string) (err error) {
	defer func(start time.Time) { finish(ctx, "cancel_friend_request", start, err, senderID, recipientID) }(time.Now())

	if err = s.dropFriendRequest(ctx, senderID, recipientID); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionCancelFriendRequest, senderID, recipientID, "friend request cancelled")
	return nil
}

func (s *friendService) dropFriendRequest(ctx context.Context, senderID, recipientID string) error {
	return s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, senderID, recipientID); err != nil {
			return err
		}
		deleted, err := tx.DeleteFriendRequest(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrRequestNotFound
		}
		return nil
	})
}

// RemoveFriend ends the friendship. Follow edges in both directions stay.
func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID string) (err error) {
	defer func(start time.Time) { finish(ctx, "remove_friend", start, err, userID, friendID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.ensureNotBlocked(ctx, tx, userID, friendID); err != nil {
			return err
		}
		deleted, err := s.deleteFriendEdge(ctx, tx, userID, friendID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrFriendshipNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID, friendID)
	audit.Log(ctx, audit.ActionRemoveFriend, userID, friendID, "friend removed")
	return nil
}

var _ FriendService = (*friendService)(nil)
