// Package notifier publishes relationship notifications after commit.
package notifier

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/relationship-service/pkg/pubsub"
)

// Event types sent to the recipient of a relationship change.
const (
	EventFollow                = "follow"
	EventFollowRequest         = "follow_request"
	EventFollowRequestAccepted = "follow_request_accepted"
	EventFriendRequest         = "friend_request"
	EventFriendRequestAccepted = "friend_request_accepted"
)

// Notifier dispatches a notification. Callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, senderID, recipientID, eventType, entityRef string) error
}

// PubSubNotifier publishes notifications on the recipient's channel.
type PubSubNotifier struct {
	publisher pubsub.Publisher
}

// NewPubSubNotifier creates a notifier over a pubsub publisher.
func NewPubSubNotifier(p pubsub.Publisher) *PubSubNotifier {
	return &PubSubNotifier{publisher: p}
}

func (n *PubSubNotifier) Notify(ctx context.Context, senderID, recipientID, eventType, entityRef string) error {
	ev, err := pubsub.NewEvent(eventType, recipientID, pubsub.NotificationPayload{
		SenderID:    senderID,
		RecipientID: recipientID,
		EntityRef:   entityRef,
	})
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if err := n.publisher.Publish(ctx, pubsub.UserNotifyChannel(recipientID), ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(ctx context.Context, senderID, recipientID, eventType, entityRef string) error {
	return nil
}

var (
	_ Notifier = (*PubSubNotifier)(nil)
	_ Notifier = Nop{}
)
