package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/config"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/testdb"
)

func TestCounters_CompositeHelpers(t *testing.T) {
	db := testdb.New(t)
	testdb.SeedProfiles(t, db, "a", "b")
	repo := repository.NewGormStore(db)
	c := NewCounters()
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, c.FollowCreated(ctx, tx, "a", "b"))
		require.NoError(t, c.FollowCreated(ctx, tx, "b", "a"))
		require.NoError(t, c.FriendCreated(ctx, tx, "a", "b"))
		return c.FollowDeleted(ctx, tx, "b", "a")
	}))

	a, err := repo.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.Counters{UserID: "a", Followers: 0, Following: 1, Friends: 1}, *a)

	b, err := repo.GetCounters(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.Counters{UserID: "b", Followers: 1, Following: 0, Friends: 1}, *b)

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		return c.FriendDeleted(ctx, tx, "a", "b")
	}))
	a, err = repo.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Friends)
}

func TestReconciler_RepairsDriftAndRefreshesCache(t *testing.T) {
	db := testdb.New(t)
	testdb.SeedProfiles(t, db, "star", "f1", "f2", "gone")
	repo := repository.NewGormStore(db)
	counters := NewCounters()
	ctx := context.Background()

	// Build consistent state, then delete a profile so the cascade leaves
	// star's counters stale.
	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		for _, id := range []string{"f1", "f2", "gone"} {
			if err := tx.CreateFollow(ctx, id, "star"); err != nil {
				return err
			}
			if err := counters.FollowCreated(ctx, tx, id, "star"); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NoError(t, db.Where("id = ?", "gone").Delete(&domain.ProfileModel{}).Error)

	stale, err := repo.GetCounters(ctx, "star")
	require.NoError(t, err)
	require.Equal(t, int64(3), stale.Followers)

	cache := store.NewMemoryCountsStore()
	require.NoError(t, cache.RecordAccess(ctx, "star"))
	require.NoError(t, cache.RecordAccess(ctx, "f1"))

	r := New(cache, repo, counters, config.ReconcilerConfig{TopN: 10})
	assert.Equal(t, 1, r.Reconcile(ctx))

	fixed, err := repo.GetCounters(ctx, "star")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixed.Followers)

	cached, ok, err := cache.GetCounts(ctx, "star")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), cached.Followers)

	top, err := cache.GetTopHotKeys(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestReconciler_SweepRepairsColdUsers(t *testing.T) {
	db := testdb.New(t)
	testdb.SeedProfiles(t, db, "cold", "f1", "gone", "x")
	repo := repository.NewGormStore(db)
	counters := NewCounters()
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		for _, id := range []string{"f1", "gone"} {
			if err := tx.CreateFollow(ctx, id, "cold"); err != nil {
				return err
			}
			if err := counters.FollowCreated(ctx, tx, id, "cold"); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NoError(t, db.Where("id = ?", "gone").Delete(&domain.ProfileModel{}).Error)

	// Nobody reads cold's counts, so only the sweep can find the drift.
	cache := store.NewMemoryCountsStore()
	r := New(cache, repo, counters, config.ReconcilerConfig{SweepBatch: 2})
	assert.Equal(t, 0, r.Reconcile(ctx))

	assert.Equal(t, 1, r.Sweep(ctx)) // cold, f1
	fixed, err := repo.GetCounters(ctx, "cold")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed.Followers)

	cached, ok, err := cache.GetCounts(ctx, "cold")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), cached.Followers)

	_, ok, err = cache.GetCounts(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, ok, "consistent users are not pushed into the cache")

	assert.Equal(t, 0, r.Sweep(ctx)) // x, then wrap
	assert.Equal(t, "", r.sweepAfter)
	assert.Equal(t, 0, r.Sweep(ctx)) // cold, f1 again
	assert.Equal(t, "f1", r.sweepAfter)
}

func TestReconciler_StartStop(t *testing.T) {
	db := testdb.New(t)
	r := New(store.NewMemoryCountsStore(), repository.NewGormStore(db), NewCounters(),
		config.ReconcilerConfig{Interval: 10 * time.Millisecond})

	r.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
