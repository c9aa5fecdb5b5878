package audit

import (
	"context"

	"github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

// Audit actions for relationship-service.
const (
	ActionFollow               = "relationship.follow"
	ActionFollowRequest        = "relationship.follow_request"
	ActionUnfollow             = "relationship.unfollow"
	ActionRemoveFollower       = "relationship.remove_follower"
	ActionAcceptFollowRequest  = "relationship.accept_follow_request"
	ActionDeclineFollowRequest = "relationship.decline_follow_request"
	ActionCancelFollowRequest  = "relationship.cancel_follow_request"
	ActionFriendRequest        = "relationship.friend_request"
	ActionAcceptFriendRequest  = "relationship.accept_friend_request"
	ActionDeclineFriendRequest = "relationship.decline_friend_request"
	ActionCancelFriendRequest  = "relationship.cancel_friend_request"
	ActionRemoveFriend         = "relationship.remove_friend"
	ActionBlock                = "relationship.block"
	ActionUnblock              = "relationship.unblock"
	ActionUpdateProfile        = "relationship.update_profile"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, targetID, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID)
	if targetID != "" {
		evt = evt.Str(log.FieldTargetID, targetID)
	}
	evt.Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, userID, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
