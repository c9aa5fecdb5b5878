package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/notifier"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/reconciler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

const defaultNotifyTimeout = 2 * time.Second

// Option configures the relationship services.
type Option func(*machine)

// WithNotifyTimeout bounds each post-commit notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(m *machine) {
		if d > 0 {
			m.notifyTimeout = d
		}
	}
}

// machine holds the transitions shared by the follow, friend and block
// services. Every transition runs on the caller's Tx; post-commit effects
// live in the effects helpers below.
type machine struct {
	repo          repository.Store
	counters      *reconciler.Counters
	cache         store.CountsStore
	notifier      notifier.Notifier
	notifyTimeout time.Duration
}

func newMachine(repo repository.Store, counters *reconciler.Counters, cache store.CountsStore, n notifier.Notifier, opts ...Option) *machine {
	if n == nil {
		n = notifier.Nop{}
	}
	m := &machine{
		repo:          repo,
		counters:      counters,
		cache:         cache,
		notifier:      n,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *machine) ensureNotBlocked(ctx context.Context, tx repository.Tx, userA, userB string) error {
	blocked, err := tx.AnyBlockBetween(ctx, userA, userB)
	if err != nil {
		return fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return domain.ErrBlocked
	}
	return nil
}

func (m *machine) requireProfile(ctx context.Context, tx repository.Tx, userID string) (*domain.Profile, error) {
	p, err := tx.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrKindNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// follow applies the privacy-gated follow transition. Callers have already
// checked blocks and the self case.
func (m *machine) follow(ctx context.Context, tx repository.Tx, senderID string, recipient *domain.Profile) (domain.FollowState, error) {
	following, err := tx.FollowExists(ctx, senderID, recipient.ID)
	if err != nil {
		return "", fmt.Errorf("check follow: %w", err)
	}
	if following {
		return "", domain.ErrAlreadyFollowing
	}

	requested, err := tx.FollowRequestExists(ctx, senderID, recipient.ID)
	if err != nil {
		return "", fmt.Errorf("check follow request: %w", err)
	}
	if requested {
		return "", domain.ErrRequestAlreadySent
	}

	if recipient.IsPrivate {
		if err := tx.CreateFollowRequest(ctx, senderID, recipient.ID); err != nil {
			return "", duplicateAs(err, domain.ErrRequestAlreadySent)
		}
		return domain.FollowStateRequested, nil
	}

	if err := m.createFollowEdge(ctx, tx, senderID, recipient.ID); err != nil {
		return "", err
	}
	return domain.FollowStateFollowing, nil
}

func (m *machine) createFollowEdge(ctx context.Context, tx repository.Tx, senderID, recipientID string) error {
	if err := tx.CreateFollow(ctx, senderID, recipientID); err != nil {
		return duplicateAs(err, domain.ErrAlreadyFollowing)
	}
	return m.counters.FollowCreated(ctx, tx, senderID, recipientID)
}

// deleteFollowEdge removes the edge and its counts. It reports false, with
// counters untouched, when there was no edge.
func (m *machine) deleteFollowEdge(ctx context.Context, tx repository.Tx, senderID, recipientID string) (bool, error) {
	deleted, err := tx.DeleteFollow(ctx, senderID, recipientID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	if !deleted {
		return false, nil
	}
	return true, m.counters.FollowDeleted(ctx, tx, senderID, recipientID)
}

func (m *machine) createFriendEdge(ctx context.Context, tx repository.Tx, userA, userB string) error {
	if err := tx.CreateFriend(ctx, userA, userB); err != nil {
		return duplicateAs(err, domain.ErrAlreadyFriends)
	}
	return m.counters.FriendCreated(ctx, tx, userA, userB)
}

func (m *machine) deleteFriendEdge(ctx context.Context, tx repository.Tx, userA, userB string) (bool, error) {
	deleted, err := tx.DeleteFriend(ctx, userA, userB)
	if err != nil {
		return false, fmt.Errorf("delete friend: %w", err)
	}
	if !deleted {
		return false, nil
	}
	return true, m.counters.FriendDeleted(ctx, tx, userA, userB)
}

// breakFriendship runs when a follow edge between the pair goes away. A
// friendship cannot outlive mutual follow, and a pending friend request
// would otherwise resurrect it, so whichever exists is removed.
func (m *machine) breakFriendship(ctx context.Context, tx repository.Tx, userA, userB string) error {
	ended, err := m.deleteFriendEdge(ctx, tx, userA, userB)
	if err != nil || ended {
		return err
	}
	return m.deleteFriendRequests(ctx, tx, userA, userB)
}

func (m *machine) deleteFriendRequests(ctx context.Context, tx repository.Tx, userA, userB string) error {
	if _, err := tx.DeleteFriendRequest(ctx, userA, userB); err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	if _, err := tx.DeleteFriendRequest(ctx, userB, userA); err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

func (m *machine) deleteFollowRequests(ctx context.Context, tx repository.Tx, userA, userB string) error {
	if _, err := tx.DeleteFollowRequest(ctx, userA, userB); err != nil {
		return fmt.Errorf("delete follow request: %w", err)
	}
	if _, err := tx.DeleteFollowRequest(ctx, userB, userA); err != nil {
		return fmt.Errorf("delete follow request: %w", err)
	}
	return nil
}

// acceptFriendRequest resolves senderID's pending request into a friendship
// and makes the pair follow each other.
func (m *machine) acceptFriendRequest(ctx context.Context, tx repository.Tx, senderID, recipientID string) error {
	deleted, err := tx.DeleteFriendRequest(ctx, senderID, recipientID)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	if !deleted {
		return domain.ErrRequestNotFound
	}
	// A racing request in the other direction must not outlive the accept.
	if _, err := tx.DeleteFriendRequest(ctx, recipientID, senderID); err != nil {
		return fmt.Errorf("delete mirror friend request: %w", err)
	}

	if err := m.createFriendEdge(ctx, tx, senderID, recipientID); err != nil {
		return err
	}

	if err := m.deleteFollowRequests(ctx, tx, senderID, recipientID); err != nil {
		return err
	}
	if err := m.ensureFollow(ctx, tx, senderID, recipientID); err != nil {
		return err
	}
	return m.ensureFollow(ctx, tx, recipientID, senderID)
}

func (m *machine) ensureFollow(ctx context.Context, tx repository.Tx, senderID, recipientID string) error {
	exists, err := tx.FollowExists(ctx, senderID, recipientID)
	if err != nil {
		return fmt.Errorf("check follow: %w", err)
	}
	if exists {
		return nil
	}
	return m.createFollowEdge(ctx, tx, senderID, recipientID)
}

// duplicateAs maps a unique violation from a losing concurrent writer to
// the matching already-exists error.
func duplicateAs(err, target error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return target
	}
	return err
}

// invalidate drops cached counts after a commit that changed them.
func (m *machine) invalidate(ctx context.Context, userIDs ...string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(context.WithoutCancel(ctx), userIDs...); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Strs("user_ids", userIDs).Msg("failed to invalidate cached counts")
	}
}

// notify publishes after commit. Failures are logged and counted only.
func (m *machine) notify(ctx context.Context, senderID, recipientID, eventType string) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
	defer cancel()

	ref := entityRef(eventType, senderID, recipientID)
	if err := m.notifier.Notify(nctx, senderID, recipientID, eventType, ref); err != nil {
		metrics.NotifyFailed()
		l := pkglog.WithPair(ctx, eventType, senderID, recipientID)
		l.Warn().Err(err).Msg("failed to send notification")
	}
}

func entityRef(eventType, senderID, recipientID string) string {
	return eventType + ":" + senderID + ":" + recipientID
}

// finish records metrics for an operation and logs unexpected failures.
// Domain errors are expected outcomes and are not logged.
func finish(ctx context.Context, operation string, start time.Time, err error, actorID, targetID string) {
	metrics.ObserveOperation(operation, start, err)
	if err == nil || domain.KindOf(err) != "" {
		return
	}
	l := pkglog.WithPair(ctx, operation, actorID, targetID)
	l.Error().Err(err).Msg("relationship operation failed")
}
