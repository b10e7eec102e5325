package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event_type"

// MessageWriter is the part of kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes stored events keyed by aggregate id, so every event of
// one product lands on the same partition in order.
type Producer struct {
	writer MessageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

// NewProducerWithWriter is used by tests to capture messages.
func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{writer: w}
}

func (p *Producer) Publish(ctx context.Context, event store.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.AggregateID),
		Value:   data,
		Time:    event.Timestamp,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(event.EventType)}},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
