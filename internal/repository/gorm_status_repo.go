package repository

import (
	"context"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// RelationStatuses computes the viewer's status toward each target in a
// fixed number of queries regardless of len(targetIDs).
func (s *GormStore) RelationStatuses(ctx context.Context, viewerID string, targetIDs []string) (map[string]domain.RelationStatus, error) {
	out := make(map[string]domain.RelationStatus, len(targetIDs))
	for _, id := range targetIDs {
		out[id] = domain.RelationStatus{}
	}
	if len(targetIDs) == 0 {
		return out, nil
	}

	db := s.db.WithContext(ctx)
	set := func(ids []string, apply func(*domain.RelationStatus)) {
		for _, id := range ids {
			st := out[id]
			apply(&st)
			out[id] = st
		}
	}

	type check struct {
		table string
		pluck string
		where string
		apply func(*domain.RelationStatus)
	}
	checks := []check{
		{"follows", "recipient_id", "sender_id = ? AND recipient_id IN ?", func(st *domain.RelationStatus) { st.Following = true }},
		{"follows", "sender_id", "recipient_id = ? AND sender_id IN ?", func(st *domain.RelationStatus) { st.FollowedBy = true }},
		{"follow_requests", "recipient_id", "sender_id = ? AND recipient_id IN ?", func(st *domain.RelationStatus) { st.FollowRequested = true }},
		{"follow_requests", "sender_id", "recipient_id = ? AND sender_id IN ?", func(st *domain.RelationStatus) { st.FollowRequestReceived = true }},
		{"friends", "user_b_id", "user_a_id = ? AND user_b_id IN ?", func(st *domain.RelationStatus) { st.Friends = true }},
		{"friends", "user_a_id", "user_b_id = ? AND user_a_id IN ?", func(st *domain.RelationStatus) { st.Friends = true }},
		{"friend_requests", "recipient_id", "sender_id = ? AND recipient_id IN ?", func(st *domain.RelationStatus) { st.FriendRequestSent = true }},
		{"friend_requests", "sender_id", "recipient_id = ? AND sender_id IN ?", func(st *domain.RelationStatus) { st.FriendRequestReceived = true }},
		{"blocks", "blocked_id", "blocker_id = ? AND blocked_id IN ?", func(st *domain.RelationStatus) { st.Blocked = true }},
		{"blocks", "blocker_id", "blocked_id = ? AND blocker_id IN ?", func(st *domain.RelationStatus) { st.BlockedBy = true }},
	}

	for _, p := range checks {
		var ids []string
		if err := db.Table(p.table).Where(p.where, viewerID, targetIDs).Pluck(p.pluck, &ids).Error; err != nil {
			return nil, translateError(err)
		}
		set(ids, p.apply)
	}
	return out, nil
}
