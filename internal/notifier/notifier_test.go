package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/pkg/pubsub"
)

type recordingPublisher struct {
	channel string
	event   *pubsub.Event
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	p.channel = channel
	p.event = event
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestPubSubNotifier_Notify(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewPubSubNotifier(pub)

	require.NoError(t, n.Notify(context.Background(), "u1", "u2", EventFollow, "follow:u1:u2"))
	assert.Equal(t, "relationship:user:u2:notify", pub.channel)
	assert.Equal(t, EventFollow, pub.event.Type)
	assert.Equal(t, "u2", pub.event.Key)

	var p pubsub.NotificationPayload
	require.NoError(t, pub.event.UnmarshalPayload(&p))
	assert.Equal(t, pubsub.NotificationPayload{SenderID: "u1", RecipientID: "u2", EntityRef: "follow:u1:u2"}, p)
}

func TestPubSubNotifier_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("down")}
	err := NewPubSubNotifier(pub).Notify(context.Background(), "u1", "u2", EventFollow, "")
	assert.ErrorIs(t, err, pub.err)
}
