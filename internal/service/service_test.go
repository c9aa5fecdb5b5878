package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/config"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/reconciler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/testdb"
)

type sentNotification struct {
	SenderID    string
	RecipientID string
	EventType   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, senderID, recipientID, eventType, entityRef string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{senderID, recipientID, eventType})
	return n.err
}

func (n *recordingNotifier) events() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type fakeSigner struct {
	failKey string
}

func (s fakeSigner) SignProfilePictureURL(ctx context.Context, key string) (string, error) {
	if key == s.failKey {
		return "", errors.New("sign failed")
	}
	return "https://cdn.test/" + key + "?sig=1", nil
}

type fixture struct {
	clock    func() time.Time
	db       *gorm.DB
	repo     *repository.GormStore
	cache    *store.MemoryCountsStore
	notes    *recordingNotifier
	follow   FollowService
	friend   FriendService
	block    BlockService
	lists    ListService
	counts   CountsService
	profiles ProfileService
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	db := testdb.New(t)
	testdb.SeedProfiles(t, db, ids...)

	// One clock orders row timestamps, cache fills and invalidations.
	clock := testdb.Clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := repository.NewGormStore(db, repository.WithClock(clock))
	counters := reconciler.NewCounters()
	cache := store.NewMemoryCountsStore(store.WithMemoryClock(clock))
	notes := &recordingNotifier{}
	signer := fakeSigner{failKey: "broken.png"}

	lists := NewListService(repo, signer, config.PaginationConfig{DefaultLimit: 20, MaxLimit: 100})
	counts := NewCountsService(repo, cache, WithCountsClock(clock))
	return &fixture{
		clock:    clock,
		db:       db,
		repo:     repo,
		cache:    cache,
		notes:    notes,
		follow:   NewFollowService(repo, counters, cache, notes),
		friend:   NewFriendService(repo, counters, cache, notes),
		block:    NewBlockService(repo, counters, cache, notes),
		lists:    lists,
		counts:   counts,
		profiles: NewProfileService(repo, counts, lists, signer),
	}
}

func (f *fixture) counters(t *testing.T, userID string) domain.Counters {
	t.Helper()
	c, err := f.repo.GetCounters(context.Background(), userID)
	require.NoError(t, err)
	return *c
}

func (f *fixture) has(t *testing.T, model interface{}, query string, args ...interface{}) bool {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n > 0
}

func (f *fixture) follows(t *testing.T, sender, recipient string) bool {
	return f.has(t, &domain.FollowModel{}, "sender_id = ? AND recipient_id = ?", sender, recipient)
}

func (f *fixture) followRequested(t *testing.T, sender, recipient string) bool {
	return f.has(t, &domain.FollowRequestModel{}, "sender_id = ? AND recipient_id = ?", sender, recipient)
}

func (f *fixture) friends(t *testing.T, a, b string) bool {
	return f.has(t, &domain.FriendModel{}, "(user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)", a, b, b, a)
}

func (f *fixture) friendRequested(t *testing.T, sender, recipient string) bool {
	return f.has(t, &domain.FriendRequestModel{}, "sender_id = ? AND recipient_id = ?", sender, recipient)
}

// assertInvariants checks every global relationship invariant against the
// raw tables.
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()

	var follows []domain.FollowModel
	var followReqs []domain.FollowRequestModel
	var friends []domain.FriendModel
	var friendReqs []domain.FriendRequestModel
	var blocks []domain.BlockModel
	var profiles []domain.ProfileModel
	require.NoError(t, f.db.Find(&follows).Error)
	require.NoError(t, f.db.Find(&followReqs).Error)
	require.NoError(t, f.db.Find(&friends).Error)
	require.NoError(t, f.db.Find(&friendReqs).Error)
	require.NoError(t, f.db.Find(&blocks).Error)
	require.NoError(t, f.db.Find(&profiles).Error)

	type pair struct{ a, b string }
	followSet := map[pair]bool{}
	want := map[string]*domain.Counters{}
	for _, p := range profiles {
		want[p.ID] = &domain.Counters{UserID: p.ID}
	}

	for _, e := range follows {
		followSet[pair{e.SenderID, e.RecipientID}] = true
		want[e.SenderID].Following++
		want[e.RecipientID].Followers++
	}
	for _, r := range followReqs {
		assert.False(t, followSet[pair{r.SenderID, r.RecipientID}], "follow edge and request coexist for %s->%s", r.SenderID, r.RecipientID)
	}
	for _, e := range friends {
		assert.Less(t, e.UserAID, e.UserBID, "friend row not canonical")
		assert.True(t, followSet[pair{e.UserAID, e.UserBID}], "friends %s,%s without follow a->b", e.UserAID, e.UserBID)
		assert.True(t, followSet[pair{e.UserBID, e.UserAID}], "friends %s,%s without follow b->a", e.UserAID, e.UserBID)
		want[e.UserAID].Friends++
		want[e.UserBID].Friends++
	}
	for _, b := range blocks {
		x, y := b.BlockerID, b.BlockedID
		assert.False(t, f.follows(t, x, y) || f.follows(t, y, x), "follow survives block %s,%s", x, y)
		assert.False(t, f.followRequested(t, x, y) || f.followRequested(t, y, x), "follow request survives block %s,%s", x, y)
		assert.False(t, f.friends(t, x, y), "friendship survives block %s,%s", x, y)
		assert.False(t, f.friendRequested(t, x, y) || f.friendRequested(t, y, x), "friend request survives block %s,%s", x, y)
	}
	for _, r := range friendReqs {
		assert.False(t, f.friends(t, r.SenderID, r.RecipientID), "friend request outlives friendship %s->%s", r.SenderID, r.RecipientID)
	}

	for id, c := range want {
		assert.Equal(t, *c, f.counters(t, id), "counters of %s", id)
	}
}
