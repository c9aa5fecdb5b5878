package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/metrics"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

const pollTimeout = 100 * time.Millisecond

// Outcome classifies what happened to one CDC message.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeTombstone Outcome = "tombstone"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// ConfluentConsumer reads user_counters change events from Kafka.
// Offsets are stored only after a message was dispatched, and committed
// by librdkafka in the background.
type ConfluentConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  CDCEventHandler
	doneCh   chan struct{}
}

// NewConfluentConsumer creates a consumer in groupID for topic.
func NewConfluentConsumer(brokers, topic, groupID string, handler CDCEventHandler) (*ConfluentConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        brokers,
		"group.id":                 groupID,
		"auto.offset.reset":        "latest",
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	return &ConfluentConsumer{
		consumer: c,
		topic:    topic,
		handler:  handler,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes to the topic and consumes in the background until ctx
// is cancelled.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if err := cc.consumer.Subscribe(cc.topic, nil); err != nil {
		return fmt.Errorf("subscribe to %s: %w", cc.topic, err)
	}
	go cc.run(ctx)
	return nil
}

func (cc *ConfluentConsumer) run(ctx context.Context) {
	defer close(cc.doneCh)
	l := pkglog.L().With().Str("topic", cc.topic).Logger()

	for ctx.Err() == nil {
		msg, err := cc.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			l.Error().Err(err).Msg("kafka CDC read failed")
			continue
		}

		// In-flight events finish even when shutdown starts mid-message.
		outcome := Dispatch(context.WithoutCancel(ctx), cc.handler, msg.Value)
		metrics.CDCEvent(string(outcome))

		if _, err := cc.consumer.StoreMessage(msg); err != nil {
			l.Warn().Err(err).Str("offset", msg.TopicPartition.Offset.String()).Msg("failed to store CDC offset")
		}
	}
	l.Info().Msg("kafka CDC consumer stopped")
}

// Dispatch decodes one raw Debezium message and hands it to handler.
// Nothing is returned as an error: a message that cannot be applied is
// logged and skipped so one bad row never stalls the partition.
func Dispatch(ctx context.Context, handler CDCEventHandler, value []byte) Outcome {
	// Debezium follows each delete with a null-valued tombstone.
	if len(value) == 0 {
		return OutcomeTombstone
	}

	l := pkglog.L()
	var event DebeziumMessage
	if err := json.Unmarshal(value, &event); err != nil {
		l.Error().Err(err).Int("bytes", len(value)).Msg("malformed CDC event")
		return OutcomeMalformed
	}

	if err := handler.HandleCDCEvent(ctx, &event); err != nil {
		l.Error().Err(err).
			Str("op", event.Payload.Op).
			Int64("ts_ms", event.Payload.TsMs).
			Msg("failed to apply CDC event")
		return OutcomeFailed
	}
	return OutcomeApplied
}

// Close waits for the consume loop to exit, then leaves the group.
// The context passed to Start must already be cancelled.
func (cc *ConfluentConsumer) Close() error {
	<-cc.doneCh
	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("close kafka consumer: %w", err)
	}
	return nil
}

var _ CDCEventConsumer = (*ConfluentConsumer)(nil)
