package pubsub

import (
	"fmt"
	"strings"
)

// Channel naming conventions for relationship notifications.
const (
	// ChannelUserNotify carries notifications addressed to one user.
	ChannelUserNotify = "relationship:user:%s:notify"

	// TopicUserNotify is the Kafka topic backing ChannelUserNotify.
	TopicUserNotify = "relationship-notify"
)

// UserNotifyChannel returns the notification channel for a recipient.
func UserNotifyChannel(userID string) string {
	return fmt.Sprintf(ChannelUserNotify, userID)
}

// channelToTopicAndKey converts a Redis-style channel to a Kafka topic and message key.
//
//	"relationship:user:U1:notify" → topic: "relationship-notify", key: "U1"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	// Expected format: {prefix}:user:{userID}:{suffix}
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "user" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return parts[0] + "-" + strings.ReplaceAll(parts[3], "_", "-"), parts[2], nil
}

// NotificationPayload is the body of every relationship notification.
type NotificationPayload struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	EntityRef   string `json:"entity_ref,omitempty"`
}
