package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.Err != nil {
		return w.Err
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.Closed = true
	return nil
}

// fakeReader hands out queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	Committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.Committed = append(r.Committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.Committed...)
}

// ============================================
// Producer Tests
// ============================================

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)
	event := store.Event{
		ID:          "e-1",
		AggregateID: "p-1",
		EventType:   "ProductCreated",
		Data:        json.RawMessage(`{"name":"Ring"}`),
		Timestamp:   time.Now(),
		Version:     1,
	}

	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, w.Messages, 1)
	msg := w.Messages[0]
	assert.Equal(t, "p-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "ProductCreated", string(msg.Headers[0].Value))

	var decoded store.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "e-1", decoded.ID)
	assert.JSONEq(t, `{"name":"Ring"}`, string(decoded.Data))

	require.NoError(t, p.Close())
	assert.True(t, w.Closed)
}

func TestProducer_Publish_Error(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{Err: errors.New("broker down")})

	err := p.Publish(context.Background(), store.Event{ID: "e-1"})

	assert.ErrorContains(t, err, "broker down")
}

// ============================================
// Consumer Tests
// ============================================

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := &fakeReader{
		queue: []kafka.Message{
			{Key: []byte("a"), Value: []byte("1"), Offset: 10},
			{Key: []byte("b"), Value: []byte("2"), Offset: 11},
		},
		fetchErrs: []error{errors.New("transient")},
	}
	c := NewConsumerWithReader(r)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, string(key))
			if string(key) == "a" {
				return errors.New("bad event")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(r.committed()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []int64{10, 11}, r.committed())
	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, seen)
	mu.Unlock()
}
