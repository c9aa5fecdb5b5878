package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/testdb"
)

func userIDs(items []domain.RelationshipEntry) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.UserID
	}
	return ids
}

func TestListFollowers_PaginationIsStablePartition(t *testing.T) {
	f := newFixture(t, "star", "f1", "f2", "f3", "f4", "f5", "late")
	ctx := context.Background()
	for _, id := range []string{"f1", "f2", "f3", "f4", "f5"} {
		_, err := f.follow.FollowUser(ctx, id, "star")
		require.NoError(t, err)
	}

	page, err := f.lists.ListFollowers(ctx, "star", "star", PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"f5", "f4"}, userIDs(page.Items))
	require.NotEmpty(t, page.NextCursor)

	// A newer follower lands outside the range already served.
	_, err = f.follow.FollowUser(ctx, "late", "star")
	require.NoError(t, err)

	seen := userIDs(page.Items)
	cursor := page.NextCursor
	for cursor != "" {
		page, err = f.lists.ListFollowers(ctx, "star", "star", PageRequest{Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		seen = append(seen, userIDs(page.Items)...)
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"f5", "f4", "f3", "f2", "f1"}, seen)
}

func TestListFollowers_ExactPageHasNoCursor(t *testing.T) {
	f := newFixture(t, "star", "f1", "f2")
	ctx := context.Background()
	for _, id := range []string{"f1", "f2"} {
		_, err := f.follow.FollowUser(ctx, id, "star")
		require.NoError(t, err)
	}

	page, err := f.lists.ListFollowers(ctx, "star", "star", PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}

func TestListFollowers_InvalidCursor(t *testing.T) {
	f := newFixture(t, "star")

	_, err := f.lists.ListFollowers(context.Background(), "star", "star", PageRequest{Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	assert.ErrorIs(t, err, domain.ErrKindInvalidArgument)
}

func TestListFollowers_HydratesForViewer(t *testing.T) {
	f := newFixture(t, "owner", "viewer", "x", "y")
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertProfile(ctx, domain.Profile{ID: "x", Username: "x", ProfilePictureKey: "x.png"}))
	require.NoError(t, f.repo.UpsertProfile(ctx, domain.Profile{ID: "y", Username: "y", ProfilePictureKey: "broken.png"}))

	for _, id := range []string{"x", "y", "viewer"} {
		_, err := f.follow.FollowUser(ctx, id, "owner")
		require.NoError(t, err)
	}
	_, err := f.follow.FollowUser(ctx, "viewer", "x")
	require.NoError(t, err)

	page, err := f.lists.ListFollowers(ctx, "viewer", "owner", PageRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{"viewer", "y", "x"}, userIDs(page.Items))

	self, y, x := page.Items[0], page.Items[1], page.Items[2]
	assert.Nil(t, self.Status)

	assert.Equal(t, "https://cdn.test/x.png?sig=1", x.ProfilePictureURL)
	require.NotNil(t, x.Status)
	// Status is relative to the viewer, not the list owner.
	assert.True(t, x.Status.Following)

	assert.Empty(t, y.ProfilePictureURL)
	require.NotNil(t, y.Status)
	assert.False(t, y.Status.Following)
}

func TestListFollowers_VisibilityGate(t *testing.T) {
	f := newFixture(t, "owner", "fan", "stranger", "blocked")
	testdb.SetPrivate(t, f.db, "owner")
	ctx := context.Background()

	_, err := f.follow.FollowUser(ctx, "fan", "owner")
	require.NoError(t, err)
	require.NoError(t, f.follow.AcceptFollowRequest(ctx, "fan", "owner"))
	require.NoError(t, f.block.BlockUser(ctx, "owner", "blocked"))

	_, err = f.lists.ListFollowers(ctx, "owner", "owner", PageRequest{})
	assert.NoError(t, err)
	_, err = f.lists.ListFollowing(ctx, "fan", "owner", PageRequest{})
	assert.NoError(t, err)
	_, err = f.lists.ListFriends(ctx, "stranger", "owner", PageRequest{})
	assert.ErrorIs(t, err, domain.ErrPrivateProfile)
	_, err = f.lists.ListFollowers(ctx, "blocked", "owner", PageRequest{})
	assert.ErrorIs(t, err, domain.ErrBlocked)
	_, err = f.lists.ListFollowers(ctx, "fan", "ghost", PageRequest{})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestListRequestsAndBlocked(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	testdb.SetPrivate(t, f.db, "a")
	ctx := context.Background()

	_, err := f.follow.FollowUser(ctx, "b", "a")
	require.NoError(t, err)
	_, err = f.friend.FriendUser(ctx, "c", "a")
	require.NoError(t, err)
	require.NoError(t, f.block.BlockUser(ctx, "a", "b"))

	page, err := f.lists.ListFollowRequests(ctx, "a", domain.DirectionIncoming, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, userIDs(page.Items))

	page, err = f.lists.ListFollowRequests(ctx, "c", domain.DirectionOutgoing, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, userIDs(page.Items))

	page, err = f.lists.ListFriendRequests(ctx, "a", domain.DirectionIncoming, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, userIDs(page.Items))
	require.NotNil(t, page.Items[0].Status)
	assert.True(t, page.Items[0].Status.FriendRequestReceived)

	page, err = f.lists.ListBlocked(ctx, "a", PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, userIDs(page.Items))
	assert.True(t, page.Items[0].Status.Blocked)

	page, err = f.lists.ListBlocked(ctx, "c", PageRequest{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestRelationStatus(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	makeFriends(t, f, "a", "b")

	st, err := f.lists.RelationStatus(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationStatus{Following: true, FollowedBy: true, Friends: true}, *st)

	st, err = f.lists.RelationStatus(ctx, "a", "a")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationStatus{}, *st)

	_, err = f.lists.RelationStatus(ctx, "a", "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
