package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/testdb"
)

func TestBlockUser_ClearsFriendship(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	makeFriends(t, f, "a", "b")

	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))

	assert.False(t, f.friends(t, "a", "b"))
	assert.False(t, f.follows(t, "a", "b"))
	assert.False(t, f.follows(t, "b", "a"))
	assert.Equal(t, domain.Counters{UserID: "a"}, f.counters(t, "a"))
	assert.Equal(t, domain.Counters{UserID: "b"}, f.counters(t, "b"))

	_, err := f.follow.FollowUser(ctx, "b", "a")
	assert.ErrorIs(t, err, domain.ErrBlocked)
	_, err = f.friend.FriendUser(ctx, "b", "a")
	assert.ErrorIs(t, err, domain.ErrBlocked)
	f.assertInvariants(t)
}

func TestBlockUser_ClearsPendingRequests(t *testing.T) {
	f := newFixture(t, "a", "b")
	testdb.SetPrivate(t, f.db, "a")
	testdb.SetPrivate(t, f.db, "b")
	ctx := context.Background()

	_, err := f.friend.FriendUser(ctx, "a", "b")
	require.NoError(t, err)
	_, err = f.follow.FollowUser(ctx, "b", "a")
	require.NoError(t, err)

	require.NoError(t, f.block.BlockUser(ctx, "b", "a"))
	assert.False(t, f.friendRequested(t, "a", "b"))
	assert.False(t, f.followRequested(t, "a", "b"))
	assert.False(t, f.followRequested(t, "b", "a"))
	f.assertInvariants(t)
}

func TestBlockUser_Preconditions(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	assert.ErrorIs(t, f.block.BlockUser(ctx, "a", "a"), domain.ErrCannotBlockSelf)
	assert.ErrorIs(t, f.block.BlockUser(ctx, "a", "ghost"), domain.ErrProfileNotFound)

	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))
	assert.ErrorIs(t, f.block.BlockUser(ctx, "a", "b"), domain.ErrAlreadyBlocked)

	// The blocked side may block back.
	require.NoError(t, f.block.BlockUser(ctx, "b", "a"))
}

func TestUnblockUser_DoesNotRestore(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	makeFriends(t, f, "a", "b")
	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))

	require.NoError(t, f.block.UnblockUser(ctx, "a", "b"))
	blocked, err := f.block.IsBlocked(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.False(t, f.friends(t, "a", "b"))
	assert.False(t, f.follows(t, "a", "b"))

	assert.ErrorIs(t, f.block.UnblockUser(ctx, "a", "b"), domain.ErrBlockNotFound)

	_, err = f.follow.FollowUser(ctx, "b", "a")
	require.NoError(t, err)
	f.assertInvariants(t)
}

func TestIsBlocked_EitherDirection(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		blocked, err := f.block.IsBlocked(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, blocked, pair)
	}
	blocked, err := f.block.IsBlocked(ctx, "a", "c")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMutationsAfterBlock_AreGated(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))

	assert.ErrorIs(t, f.follow.UnfollowUser(ctx, "b", "a"), domain.ErrBlocked)
	assert.ErrorIs(t, f.follow.AcceptFollowRequest(ctx, "b", "a"), domain.ErrBlocked)
	assert.ErrorIs(t, f.friend.AcceptFriendRequest(ctx, "b", "a"), domain.ErrBlocked)
	assert.ErrorIs(t, f.friend.RemoveFriend(ctx, "a", "b"), domain.ErrBlocked)
}
