package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelToTopicAndKey(t *testing.T) {
	topic, key, err := channelToTopicAndKey(UserNotifyChannel("U1"))
	require.NoError(t, err)
	assert.Equal(t, TopicUserNotify, topic)
	assert.Equal(t, "U1", key)
}

func TestChannelToTopicAndKey_Invalid(t *testing.T) {
	for _, ch := range []string{"", "relationship:room:U1:notify", "relationship:user::notify", "a:b"} {
		_, _, err := channelToTopicAndKey(ch)
		assert.Error(t, err, ch)
	}
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("follow", "U2", NotificationPayload{SenderID: "U1", RecipientID: "U2"})
	require.NoError(t, err)
	assert.Equal(t, "U2", ev.Key)

	var p NotificationPayload
	require.NoError(t, ev.UnmarshalPayload(&p))
	assert.Equal(t, "U1", p.SenderID)
}
