package reconciler

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/config"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

// Reconciler periodically recounts counters from the edge tables and
// repairs drift in user_counters. Each tick covers the hottest users and
// then the next batch of a rolling sweep over all profiles.
// Drift appears when account deletion cascades remove edges of other users.
type Reconciler struct {
	cache    store.CountsStore
	repo     repository.Store
	counters *Counters
	cfg      config.ReconcilerConfig
	now      func() time.Time
	quit     chan struct{}
	doneCh   chan struct{}

	// sweepAfter is the last profile id the sweep visited. Owned by the
	// run loop.
	sweepAfter string
}

// New creates a new Reconciler.
func New(cache store.CountsStore, repo repository.Store, counters *Counters, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		cache:    cache,
		repo:     repo,
		counters: counters,
		cfg:      cfg,
		now:      time.Now,
		quit:     make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
			r.Sweep(ctx)
		}
	}
}

// Reconcile runs one pass over the current top-N hot keys and returns how
// many counter rows were repaired.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	l := pkglog.L()
	l.Debug().Msg("reconciler: starting hot-key reconciliation")

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	// 1. Fetch top-N hot keys
	userIDs, err := r.cache.GetTopHotKeys(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot keys")
		return 0
	}

	if len(userIDs) == 0 {
		l.Debug().Msg("reconciler: no hot keys to reconcile")
		return 0
	}

	// 2. Recount each hot key and refresh the cache
	repaired := 0
	for _, userID := range userIDs {
		if r.repair(ctx, userID, true) {
			repaired++
		}
	}

	// 3. Reset hot key scores for the next cycle
	if err := r.cache.ResetHotKeyScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot key scores")
	}

	l.Info().Int("count", len(userIDs)).Int("repaired", repaired).Msg("reconciler: hot-key reconciliation complete")
	return repaired
}

// Sweep recounts the next batch of profiles in id order and returns how
// many rows it repaired. Only repaired users are written to the cache.
// Reaching the end restarts the sweep from the first id.
func (r *Reconciler) Sweep(ctx context.Context) int {
	l := pkglog.L()

	batch := r.cfg.SweepBatch
	if batch <= 0 {
		batch = 500
	}

	userIDs, err := r.repo.ListProfileIDs(ctx, r.sweepAfter, batch)
	if err != nil {
		l.Error().Err(err).Str("after", r.sweepAfter).Msg("reconciler: failed to list profiles for sweep")
		return 0
	}

	repaired := 0
	for _, userID := range userIDs {
		if r.repair(ctx, userID, false) {
			repaired++
		}
	}

	if len(userIDs) < batch {
		r.sweepAfter = ""
	} else {
		r.sweepAfter = userIDs[len(userIDs)-1]
	}

	l.Debug().Int("count", len(userIDs)).Int("repaired", repaired).Msg("reconciler: sweep batch complete")
	return repaired
}

// repair recounts one user and reports whether the stored row drifted.
// The cache is refreshed when refresh is set or the row was repaired.
func (r *Reconciler) repair(ctx context.Context, userID string, refresh bool) bool {
	l := pkglog.L()

	// Taken before the recount so a commit racing it invalidates the fill.
	version := r.now().UnixMicro()

	var actual *domain.Counters
	var fixed bool
	err := r.repo.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		actual, fixed, err = r.counters.Recount(ctx, tx, userID)
		return err
	})
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("reconciler: failed to recount")
		return false
	}
	if fixed {
		metrics.CounterRepaired()
		l.Warn().
			Str(pkglog.FieldUserID, userID).
			Int64("followers", actual.Followers).
			Int64("following", actual.Following).
			Int64("friends", actual.Friends).
			Msg("reconciler: repaired drifted counters")
	}
	if refresh || fixed {
		if err := r.cache.SetCounts(ctx, *actual, version); err != nil {
			l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("reconciler: failed to set counts in cache")
		}
	}
	return fixed
}
