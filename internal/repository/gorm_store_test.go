package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/pagination"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/testdb"
)

func newTestStore(t *testing.T, ids ...string) (*GormStore, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	testdb.SeedProfiles(t, db, ids...)
	return NewGormStore(db, WithClock(testdb.Clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))), db
}

func TestCreateFollow_DuplicateIsConstraintViolation(t *testing.T) {
	s, _ := newTestStore(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFollow(ctx, "a", "b")
	}))

	err := s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFollow(ctx, "a", "b")
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrKindConstraintViolation)
}

func TestCreateFollow_SelfIsRejectedByStorage(t *testing.T) {
	s, _ := newTestStore(t, "a")
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFollow(ctx, "a", "a")
	})
	assert.ErrorIs(t, err, domain.ErrKindConstraintViolation)
}

func TestCreateFollow_UnknownProfileIsRejectedByStorage(t *testing.T) {
	s, _ := newTestStore(t, "a")
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFollow(ctx, "a", "ghost")
	})
	assert.ErrorIs(t, err, domain.ErrKindConstraintViolation)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, _ := newTestStore(t, "a", "b")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFollow(ctx, "a", "b"))
		require.NoError(t, tx.AdjustCounter(ctx, "a", domain.CounterFollowing, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	following, err := s.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, following)

	c, err := s.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Following)
}

func TestFriend_CanonicalOrdering(t *testing.T) {
	s, db := newTestStore(t, "alice", "bob")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFriend(ctx, "bob", "alice")
	}))

	var m domain.FriendModel
	require.NoError(t, db.First(&m).Error)
	assert.Equal(t, "alice", m.UserAID)
	assert.Equal(t, "bob", m.UserBID)

	err := s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateFriend(ctx, "alice", "bob")
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		ok, err := tx.FriendExists(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.True(t, ok)

		removed, err := tx.DeleteFriend(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.True(t, removed)
		return nil
	}))
}

func TestDelete_ReportsWhetherRowExisted(t *testing.T) {
	s, _ := newTestStore(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		removed, err := tx.DeleteFollowRequest(ctx, "a", "b")
		require.NoError(t, err)
		assert.False(t, removed)

		require.NoError(t, tx.CreateFollowRequest(ctx, "a", "b"))
		removed, err = tx.DeleteFollowRequest(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, removed)
		return nil
	}))
}

func TestAdjustCounter_ClampsAtZero(t *testing.T) {
	s, _ := newTestStore(t, "a")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.AdjustCounter(ctx, "a", domain.CounterFollowers, -1))
		require.NoError(t, tx.AdjustCounter(ctx, "a", domain.CounterFollowers, 2))
		require.NoError(t, tx.AdjustCounter(ctx, "a", domain.CounterFollowers, 3))
		require.NoError(t, tx.AdjustCounter(ctx, "a", domain.CounterFollowers, -1))
		return tx.AdjustCounter(ctx, "a", domain.CounterFriends, -5)
	}))

	c, err := s.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Followers)
	assert.Equal(t, int64(0), c.Friends)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.AdjustCounter(ctx, "a", domain.CounterFollowers, -10)
	}))
	c, err = s.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Followers)
}

func TestAdjustCounter_UnknownColumn(t *testing.T) {
	s, _ := newTestStore(t, "a")
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx Tx) error {
		return tx.AdjustCounter(ctx, "a", domain.CounterColumn("likes"), 1)
	})
	assert.Error(t, err)
}

func TestSetAndLockCounters(t *testing.T) {
	s, _ := newTestStore(t, "a")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		c, err := tx.LockCounters(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.Counters{UserID: "a"}, *c)
		return tx.SetCounters(ctx, domain.Counters{UserID: "a", Followers: 3, Following: 2, Friends: 1})
	}))
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.SetCounters(ctx, domain.Counters{UserID: "a", Followers: 1})
	}))

	c, err := s.GetCounters(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.Counters{UserID: "a", Followers: 1}, *c)
}

func TestProfileDeletionCascades(t *testing.T) {
	s, db := newTestStore(t, "a", "b", "c")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFollow(ctx, "a", "b"))
		require.NoError(t, tx.CreateFollow(ctx, "c", "b"))
		require.NoError(t, tx.CreateFriendRequest(ctx, "b", "a"))
		require.NoError(t, tx.CreateFriend(ctx, "a", "c"))
		require.NoError(t, tx.CreateBlock(ctx, "b", "c"))
		return tx.AdjustCounter(ctx, "b", domain.CounterFollowers, 2)
	}))

	require.NoError(t, db.Where("id = ?", "b").Delete(&domain.ProfileModel{}).Error)

	for _, model := range []interface{}{&domain.FollowModel{}, &domain.FriendRequestModel{}, &domain.BlockModel{}, &domain.UserCounterModel{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
	var friends int64
	require.NoError(t, db.Model(&domain.FriendModel{}).Count(&friends).Error)
	assert.Equal(t, int64(1), friends)
}

func TestProfiles_UpsertAndPrivacy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProfile(ctx, domain.Profile{ID: "u1", Username: "alice"}))
	require.NoError(t, s.UpsertProfile(ctx, domain.Profile{ID: "u1", Username: "alice2", ProfilePictureKey: "avatars/u1.png"}))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", p.Username)
	assert.Equal(t, "avatars/u1.png", p.ProfilePictureKey)
	assert.False(t, p.IsPrivate)

	require.NoError(t, s.SetPrivacy(ctx, "u1", true))
	p, err = s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.IsPrivate)

	assert.ErrorIs(t, s.SetPrivacy(ctx, "ghost", true), domain.ErrProfileNotFound)
	_, err = s.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestListProfileIDs_PagesInIDOrder(t *testing.T) {
	s, _ := newTestStore(t, "c", "a", "d", "b")
	ctx := context.Background()

	ids, err := s.ListProfileIDs(ctx, "", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	ids, err = s.ListProfileIDs(ctx, "c", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids)

	ids, err = s.ListProfileIDs(ctx, "d", 3)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListFollowers_KeysetPagination(t *testing.T) {
	ids := []string{"owner", "f1", "f2", "f3", "f4", "f5"}
	s, _ := newTestStore(t, ids...)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		for _, id := range ids[1:] {
			if err := tx.CreateFollow(ctx, id, "owner"); err != nil {
				return err
			}
		}
		return nil
	}))

	var seen []string
	var cursor *pagination.Cursor
	for pages := 0; pages < 10; pages++ {
		rows, err := s.ListFollowers(ctx, "owner", ListQuery{Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		page := pagination.Slice(rows, 2, func(e domain.RelationshipEntry) pagination.Cursor {
			return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
		})
		for _, e := range page.Items {
			seen = append(seen, e.UserID)
		}
		if page.NextCursor == nil {
			break
		}
		// Round-trip through the wire format like a real client.
		cursor, err = pagination.Decode(page.Token())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"f5", "f4", "f3", "f2", "f1"}, seen)
}

func TestListFriends_ReturnsOtherParty(t *testing.T) {
	s, _ := newTestStore(t, "m", "a", "z")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFriend(ctx, "m", "a"))
		return tx.CreateFriend(ctx, "m", "z")
	}))

	rows, err := s.ListFriends(ctx, "m", ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "z", rows[0].UserID)
	assert.Equal(t, "a", rows[1].UserID)
}

func TestListRequests_Direction(t *testing.T) {
	s, _ := newTestStore(t, "a", "b", "c")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFriendRequest(ctx, "a", "b"))
		return tx.CreateFriendRequest(ctx, "c", "a")
	}))

	in, err := s.ListFriendRequests(ctx, "a", domain.DirectionIncoming, ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "c", in[0].UserID)

	out, err := s.ListFriendRequests(ctx, "a", domain.DirectionOutgoing, ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].UserID)
}

func TestRelationStatuses(t *testing.T) {
	s, _ := newTestStore(t, "v", "x", "y", "z")
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFollow(ctx, "v", "x"))
		require.NoError(t, tx.CreateFollow(ctx, "x", "v"))
		require.NoError(t, tx.CreateFriend(ctx, "x", "v"))
		require.NoError(t, tx.CreateFollowRequest(ctx, "v", "y"))
		require.NoError(t, tx.CreateFriendRequest(ctx, "y", "v"))
		return tx.CreateBlock(ctx, "z", "v")
	}))

	st, err := s.RelationStatuses(ctx, "v", []string{"x", "y", "z"})
	require.NoError(t, err)

	assert.Equal(t, domain.RelationStatus{Following: true, FollowedBy: true, Friends: true}, st["x"])
	assert.Equal(t, domain.RelationStatus{FollowRequested: true, FriendRequestReceived: true}, st["y"])
	assert.Equal(t, domain.RelationStatus{BlockedBy: true}, st["z"])

	blocked, err := s.IsBlocked(ctx, "v", "z")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), domain.ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translateError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_follows_pair"`)), ErrDuplicate)
	assert.ErrorIs(t, translateError(errors.New("CHECK constraint failed: chk_follows_no_self")), domain.ErrKindConstraintViolation)
	assert.NotErrorIs(t, translateError(errors.New("CHECK constraint failed")), ErrDuplicate)
	assert.ErrorIs(t, translateError(context.Canceled), context.Canceled)
	assert.Nil(t, translateError(nil))

	other := errors.New("connection reset")
	assert.Same(t, other, translateError(other))
}
