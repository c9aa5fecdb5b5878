package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/audit"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/media"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

// profileService implements ProfileService.
type profileService struct {
	repo   repository.Store
	counts CountsService
	lists  ListService
	signer media.Signer
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(repo repository.Store, counts CountsService, lists ListService, signer media.Signer) ProfileService {
	return &profileService{
		repo:   repo,
		counts: counts,
		lists:  lists,
		signer: signer,
	}
}

// UpsertProfile creates or replaces the profile mirror row.
func (s *profileService) UpsertProfile(ctx context.Context, p domain.Profile) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return domain.ErrInvalidUserID
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	audit.LogWithDetail(ctx, audit.ActionUpdateProfile, p.ID, p.ID, fmt.Sprintf("private=%t", p.IsPrivate), "profile updated")
	return nil
}

// SetPrivacy switches the profile between public and private. Pending
// follow requests are kept either way.
func (s *profileService) SetPrivacy(ctx context.Context, userID string, private bool) error {
	if err := s.repo.SetPrivacy(ctx, userID, private); err != nil {
		return err
	}
	audit.LogWithDetail(ctx, audit.ActionUpdateProfile, userID, userID, fmt.Sprintf("private=%t", private), "privacy changed")
	return nil
}

// GetProfile returns targetID's profile with counts and, for other viewers,
// the viewer's relationship status. Blocked pairs see nothing.
func (s *profileService) GetProfile(ctx context.Context, viewerID, targetID string) (*domain.ProfileView, error) {
	p, err := s.repo.GetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}

	view := &domain.ProfileView{Profile: *p}
	if viewerID != targetID {
		st, err := s.lists.RelationStatus(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
		if st.Blocked || st.BlockedBy {
			return nil, domain.ErrBlocked
		}
		view.Status = st
	}

	counts, err := s.counts.GetCounts(ctx, targetID)
	if err != nil {
		return nil, err
	}
	view.Counters = *counts

	if s.signer != nil && p.ProfilePictureKey != "" {
		url, err := s.signer.SignProfilePictureURL(ctx, p.ProfilePictureKey)
		if err != nil {
			l := pkglog.Ctx(ctx)
			l.Warn().Err(err).Str("user_id", targetID).Msg("failed to sign profile picture url")
		} else {
			view.Profile.ProfilePictureURL = url
		}
	}
	return view, nil
}

var _ ProfileService = (*profileService)(nil)
