package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/config"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/media"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/pagination"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

// maxSignConcurrency caps concurrent URL signing per page.
const maxSignConcurrency = 8

type listFunc func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error)

// listService implements ListService.
type listService struct {
	repo         repository.Store
	signer       media.Signer
	defaultLimit int
	maxLimit     int
}

// NewListService creates a new ListService instance.
func NewListService(repo repository.Store, signer media.Signer, cfg config.PaginationConfig) ListService {
	return &listService{
		repo:         repo,
		signer:       signer,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// ListFollowers lists the users following userID, newest first.
func (s *listService) ListFollowers(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error) {
	if err := s.checkVisible(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListFollowers(ctx, userID, q)
	})
}

// ListFollowing lists the users userID follows, newest first.
func (s *listService) ListFollowing(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error) {
	if err := s.checkVisible(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListFollowing(ctx, userID, q)
	})
}

// ListFriends lists userID's friends, newest friendship first.
func (s *listService) ListFriends(ctx context.Context, viewerID, userID string, req PageRequest) (*domain.EntryPage, error) {
	if err := s.checkVisible(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListFriends(ctx, userID, q)
	})
}

// ListFollowRequests lists userID's pending follow requests in one direction.
func (s *listService) ListFollowRequests(ctx context.Context, userID string, dir domain.Direction, req PageRequest) (*domain.EntryPage, error) {
	return s.page(ctx, userID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListFollowRequests(ctx, userID, dir, q)
	})
}

// ListFriendRequests lists userID's pending friend requests in one direction.
func (s *listService) ListFriendRequests(ctx context.Context, userID string, dir domain.Direction, req PageRequest) (*domain.EntryPage, error) {
	return s.page(ctx, userID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListFriendRequests(ctx, userID, dir, q)
	})
}

// ListBlocked lists the users userID has blocked.
func (s *listService) ListBlocked(ctx context.Context, userID string, req PageRequest) (*domain.EntryPage, error) {
	return s.page(ctx, userID, req, func(ctx context.Context, q repository.ListQuery) ([]domain.RelationshipEntry, error) {
		return s.repo.ListBlocked(ctx, userID, q)
	})
}

// RelationStatus returns every relation between viewerID and targetID from
// the viewer's side.
func (s *listService) RelationStatus(ctx context.Context, viewerID, targetID string) (*domain.RelationStatus, error) {
	if viewerID == targetID {
		return &domain.RelationStatus{}, nil
	}
	if _, err := s.repo.GetProfile(ctx, targetID); err != nil {
		return nil, err
	}
	statuses, err := s.repo.RelationStatuses(ctx, viewerID, []string{targetID})
	if err != nil {
		return nil, fmt.Errorf("relation status: %w", err)
	}
	st := statuses[targetID]
	return &st, nil
}

// checkVisible gates another user's social lists. The owner always sees
// their own; others are refused when a block exists either way, or when
// the owner is private and the viewer does not follow them.
func (s *listService) checkVisible(ctx context.Context, viewerID, ownerID string) error {
	if viewerID == ownerID {
		return nil
	}
	owner, err := s.repo.GetProfile(ctx, ownerID)
	if err != nil {
		return err
	}
	blocked, err := s.repo.IsBlocked(ctx, viewerID, ownerID)
	if err != nil {
		return fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return domain.ErrBlocked
	}
	if !owner.IsPrivate {
		return nil
	}
	following, err := s.repo.IsFollowing(ctx, viewerID, ownerID)
	if err != nil {
		return fmt.Errorf("check follow: %w", err)
	}
	if !following {
		return domain.ErrPrivateProfile
	}
	return nil
}

// page fetches limit+1 rows after the cursor, slices off the look-ahead row
// and hydrates only what is returned.
func (s *listService) page(ctx context.Context, viewerID string, req PageRequest, list listFunc) (*domain.EntryPage, error) {
	cursor, err := pagination.Decode(req.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(req.Limit, s.defaultLimit, s.maxLimit)

	rows, err := list(ctx, repository.ListQuery{Cursor: cursor, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}

	p := pagination.Slice(rows, limit, entryKey)
	if err := s.hydrate(ctx, viewerID, p.Items); err != nil {
		return nil, err
	}

	items := p.Items
	if items == nil {
		items = []domain.RelationshipEntry{}
	}
	return &domain.EntryPage{Items: items, NextCursor: p.Token()}, nil
}

func entryKey(e domain.RelationshipEntry) pagination.Cursor {
	return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

// hydrate signs profile pictures and attaches the viewer's status toward
// each listed user. A signing failure leaves that URL empty.
func (s *listService) hydrate(ctx context.Context, viewerID string, items []domain.RelationshipEntry) error {
	if len(items) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSignConcurrency)

	var statuses map[string]domain.RelationStatus
	g.Go(func() error {
		ids := make([]string, len(items))
		for i := range items {
			ids[i] = items[i].UserID
		}
		var err error
		statuses, err = s.repo.RelationStatuses(gctx, viewerID, ids)
		if err != nil {
			return fmt.Errorf("relation statuses: %w", err)
		}
		return nil
	})

	if s.signer != nil {
		for i := range items {
			key := items[i].ProfilePictureKey
			if key == "" {
				continue
			}
			g.Go(func() error {
				url, err := s.signer.SignProfilePictureURL(gctx, key)
				if err != nil {
					l := pkglog.Ctx(ctx)
					l.Warn().Err(err).Str("user_id", items[i].UserID).Msg("failed to sign profile picture url")
					return nil
				}
				items[i].ProfilePictureURL = url
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i := range items {
		st, ok := statuses[items[i].UserID]
		if !ok || items[i].UserID == viewerID {
			continue
		}
		items[i].Status = &st
	}
	return nil
}

var _ ListService = (*listService)(nil)
