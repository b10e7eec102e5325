package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrVersionConflict = errors.New("aggregate version conflict")
	ErrInvalidEvent    = errors.New("invalid event")
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// EventStore is the write side of the catalog. Append is optimistic:
// expectedVersion is the version the caller last saw (0 for a new aggregate)
// and a mismatch fails with ErrVersionConflict.
type EventStore interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error)
	// Events returns the events of one aggregate with a version above afterVersion, oldest first.
	Events(ctx context.Context, aggregateID string, afterVersion int) ([]Event, error)
	// AllEvents returns every event in the store in append order.
	AllEvents(ctx context.Context) ([]Event, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	// LatestSnapshot returns nil when the aggregate has none.
	LatestSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
}

func newEvent(id, aggregateID, aggregateType, eventType string, version int, data any, now time.Time) (Event, error) {
	if aggregateID == "" || aggregateType == "" || eventType == "" {
		return Event{}, ErrInvalidEvent
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     now.UTC(),
		Version:       version,
	}, nil
}
