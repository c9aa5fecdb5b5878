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

// blockService implements BlockService.
type blockService struct {
	*machine
}

// NewBlockService creates a new BlockService instance.
func NewBlockService(repo repository.Store, counters *reconciler.Counters, cache store.CountsStore, n notifier.Notifier, opts ...Option) BlockService {
	return &blockService{machine: newMachine(repo, counters, cache, n, opts...)}
}

// BlockUser records the block after clearing every relation between the pair.
func (s *blockService) BlockUser(ctx context.Context, blockerID, blockedID string) (err error) {
	defer func(start time.Time) { finish(ctx, "block", start, err, blockerID, blockedID) }(time.Now())

	if blockerID == blockedID {
		return domain.ErrCannotBlockSelf
	}

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := s.requireProfile(ctx, tx, blockedID); err != nil {
			return err
		}
		exists, err := tx.BlockExists(ctx, blockerID, blockedID)
		if err != nil {
			return fmt.Errorf("check block: %w", err)
		}
		if exists {
			return domain.ErrAlreadyBlocked
		}

		if _, err := s.deleteFriendEdge(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		if err := s.deleteFriendRequests(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := s.deleteFollowEdge(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := s.deleteFollowEdge(ctx, tx, blockedID, blockerID); err != nil {
			return err
		}
		if err := s.deleteFollowRequests(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}

		if err := tx.CreateBlock(ctx, blockerID, blockedID); err != nil {
			return duplicateAs(err, domain.ErrAlreadyBlocked)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, blockerID, blockedID)
	audit.Log(ctx, audit.ActionBlock, blockerID, blockedID, "user blocked")
	return nil
}

// UnblockUser removes the block. Nothing that existed before it is restored.
func (s *blockService) UnblockUser(ctx context.Context, blockerID, blockedID string) (err error) {
	defer func(start time.Time) { finish(ctx, "unblock", start, err, blockerID, blockedID) }(time.Now())

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		deleted, err := tx.DeleteBlock(ctx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrBlockNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionUnblock, blockerID, blockedID, "user unblocked")
	return nil
}

// IsBlocked reports whether either user blocks the other.
func (s *blockService) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	return s.repo.IsBlocked(ctx, userA, userB)
}

var _ BlockService = (*blockService)(nil)
