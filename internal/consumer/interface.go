package consumer

import "context"

// DebeziumCounterRecord is a user_counters row in a Debezium CDC event.
type DebeziumCounterRecord struct {
	UserID    string `json:"user_id"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Friends   int64  `json:"friends"`
}

// DebeziumPayload is the payload field of a Debezium CDC message.
type DebeziumPayload struct {
	Before *DebeziumCounterRecord `json:"before"`
	After  *DebeziumCounterRecord `json:"after"`
	Op     string                 `json:"op"` // "c"=create, "u"=update, "d"=delete, "r"=snapshot
	TsMs   int64                  `json:"ts_ms"`
}

// DebeziumMessage is the top-level Debezium CDC message envelope.
type DebeziumMessage struct {
	Payload DebeziumPayload `json:"payload"`
}

// CDCEventHandler processes a decoded Debezium CDC message.
type CDCEventHandler interface {
	HandleCDCEvent(ctx context.Context, event *DebeziumMessage) error
}

// CDCEventConsumer manages the Kafka consumer lifecycle.
type CDCEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
