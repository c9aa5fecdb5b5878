package reconciler

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
)

// Counters keeps user_counters in step with edge mutations. Every call
// takes the Tx of the mutation it accounts for.
type Counters struct{}

// NewCounters creates a Counters.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) adjust(ctx context.Context, tx repository.Tx, userID string, col domain.CounterColumn, delta int64) error {
	if err := tx.AdjustCounter(ctx, userID, col, delta); err != nil {
		return fmt.Errorf("adjust %s for %s: %w", col, userID, err)
	}
	return nil
}

func (c *Counters) IncrementFollowers(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFollowers, by)
}

func (c *Counters) DecrementFollowers(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFollowers, -by)
}

func (c *Counters) IncrementFollowing(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFollowing, by)
}

func (c *Counters) DecrementFollowing(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFollowing, -by)
}

func (c *Counters) IncrementFriends(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFriends, by)
}

func (c *Counters) DecrementFriends(ctx context.Context, tx repository.Tx, userID string, by int64) error {
	return c.adjust(ctx, tx, userID, domain.CounterFriends, -by)
}

// FollowCreated accounts for a new sender -> recipient edge.
func (c *Counters) FollowCreated(ctx context.Context, tx repository.Tx, senderID, recipientID string) error {
	if err := c.IncrementFollowing(ctx, tx, senderID, 1); err != nil {
		return err
	}
	return c.IncrementFollowers(ctx, tx, recipientID, 1)
}

// FollowDeleted accounts for a removed sender -> recipient edge.
func (c *Counters) FollowDeleted(ctx context.Context, tx repository.Tx, senderID, recipientID string) error {
	if err := c.DecrementFollowing(ctx, tx, senderID, 1); err != nil {
		return err
	}
	return c.DecrementFollowers(ctx, tx, recipientID, 1)
}

// FriendCreated accounts for a new friendship.
func (c *Counters) FriendCreated(ctx context.Context, tx repository.Tx, userA, userB string) error {
	if err := c.IncrementFriends(ctx, tx, userA, 1); err != nil {
		return err
	}
	return c.IncrementFriends(ctx, tx, userB, 1)
}

// FriendDeleted accounts for a removed friendship.
func (c *Counters) FriendDeleted(ctx context.Context, tx repository.Tx, userA, userB string) error {
	if err := c.DecrementFriends(ctx, tx, userA, 1); err != nil {
		return err
	}
	return c.DecrementFriends(ctx, tx, userB, 1)
}

// Recount recomputes a user's counters from the edge tables under a row
// lock and repairs the stored row when it drifted. It reports the
// authoritative counts and whether a repair was written.
func (c *Counters) Recount(ctx context.Context, tx repository.Tx, userID string) (*domain.Counters, bool, error) {
	stored, err := tx.LockCounters(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("lock counters: %w", err)
	}

	actual := domain.Counters{UserID: userID}
	if actual.Followers, err = tx.CountFollowers(ctx, userID); err != nil {
		return nil, false, fmt.Errorf("count followers: %w", err)
	}
	if actual.Following, err = tx.CountFollowing(ctx, userID); err != nil {
		return nil, false, fmt.Errorf("count following: %w", err)
	}
	if actual.Friends, err = tx.CountFriends(ctx, userID); err != nil {
		return nil, false, fmt.Errorf("count friends: %w", err)
	}

	if *stored == actual {
		return &actual, false, nil
	}
	if err := tx.SetCounters(ctx, actual); err != nil {
		return nil, false, fmt.Errorf("repair counters: %w", err)
	}
	return &actual, true, nil
}
