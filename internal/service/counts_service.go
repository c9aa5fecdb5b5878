package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

// countsService implements CountsService.
type countsService struct {
	repo  repository.Store
	cache store.CountsStore
	now   func() time.Time
	sf    singleflight.Group
}

// CountsOption configures the counts service.
type CountsOption func(*countsService)

// WithCountsClock sets the clock that versions cache fills.
func WithCountsClock(now func() time.Time) CountsOption {
	return func(s *countsService) { s.now = now }
}

// NewCountsService creates a new CountsService instance.
func NewCountsService(repo repository.Store, cache store.CountsStore, opts ...CountsOption) CountsService {
	s := &countsService{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCounts returns a user's counts. It checks the cache first; on miss it
// reads user_counters once per user across concurrent callers and
// repopulates the cache.
func (s *countsService) GetCounts(ctx context.Context, userID string) (*domain.Counters, error) {
	l := pkglog.Ctx(ctx)

	// Always record access for hot key tracking (best-effort)
	if err := s.cache.RecordAccess(ctx, userID); err != nil {
		l.Warn().Err(err).Str("user_id", userID).Msg("failed to record hot key access")
	}

	cached, found, err := s.cache.GetCounts(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Str("user_id", userID).Msg("cache get counts failed, falling back to db")
	}
	if found {
		metrics.CacheHit()
		return cached, nil
	}
	metrics.CacheMiss()

	result, err, _ := s.sf.Do(userID, func() (interface{}, error) {
		return s.loadCounts(context.WithoutCancel(ctx), userID)
	})
	if err != nil {
		return nil, err
	}

	c, ok := result.(*domain.Counters)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	out := *c
	return &out, nil
}

func (s *countsService) loadCounts(ctx context.Context, userID string) (*domain.Counters, error) {
	// Version is taken before the read so a CDC event or an invalidation
	// for a later commit always wins over this fill.
	version := s.now().UnixMicro()

	c, err := s.repo.GetCounters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get counters from db: %w", err)
	}

	if err := s.cache.SetCounts(ctx, *c, version); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str("user_id", userID).Msg("failed to set counts in cache")
	}
	return c, nil
}

// HandleCDCEvent applies a Debezium event from user_counters to the cache.
func (s *countsService) HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error {
	l := pkglog.Ctx(ctx)
	op := event.Payload.Op

	switch op {
	case "r":
		// Snapshot read, skip
		return nil

	case "c", "u":
		after := event.Payload.After
		if after == nil {
			l.Warn().Str("op", op).Msg("CDC event missing 'after' field")
			return nil
		}
		c := domain.Counters{
			UserID:    after.UserID,
			Followers: after.Followers,
			Following: after.Following,
			Friends:   after.Friends,
		}
		if err := s.cache.SetCounts(ctx, c, event.Payload.TsMs*1000); err != nil {
			l.Error().Err(err).Str("user_id", after.UserID).Msg("failed to refresh counts from CDC event")
			return err
		}

	case "d":
		// Counter rows go away with their profile.
		before := event.Payload.Before
		if before == nil {
			l.Warn().Msg("CDC delete event missing 'before' field")
			return nil
		}
		if err := s.cache.Invalidate(ctx, before.UserID); err != nil {
			l.Error().Err(err).Str("user_id", before.UserID).Msg("failed to evict counts on CDC delete")
			return err
		}

	default:
		l.Warn().Str("op", op).Msg("unknown CDC operation, skipping")
	}

	return nil
}

var (
	_ CountsService            = (*countsService)(nil)
	_ consumer.CDCEventHandler = (*countsService)(nil)
)
