package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is an in-memory store.EventStore that records calls.
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	order     []store.Event
	snapshots map[string]store.Snapshot

	AppendCalls       []AppendCall
	SaveSnapshotCalls []store.Snapshot
	AppendErr         error
	EventsErr         error
	SnapshotErr       error
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID     string
	AggregateType   string
	EventType       string
	ExpectedVersion int
	Data            any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:    make(map[string][]store.Event),
		snapshots: make(map[string]store.Snapshot),
	}
}

func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:     aggregateID,
		AggregateType:   aggregateType,
		EventType:       eventType,
		ExpectedVersion: expectedVersion,
		Data:            data,
	})
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	if len(m.events[aggregateID]) != expectedVersion {
		return nil, store.ErrVersionConflict
	}
	event, err := m.add(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// AddEvent seeds an event without recording an Append call.
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) store.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, _ := m.add(aggregateID, aggregateType, eventType, data)
	return event
}

func (m *MockEventStore) add(aggregateID, aggregateType, eventType string, data any) (store.Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return store.Event{}, err
	}
	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(m.events[aggregateID]) + 1,
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	m.order = append(m.order, event)
	return event, nil
}

func (m *MockEventStore) Events(ctx context.Context, aggregateID string, afterVersion int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.EventsErr != nil {
		return nil, m.EventsErr
	}
	var out []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > afterVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) AllEvents(ctx context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.EventsErr != nil {
		return nil, m.EventsErr
	}
	return append([]store.Event(nil), m.order...), nil
}

func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSnapshotCalls = append(m.SaveSnapshotCalls, *snapshot)
	if m.SnapshotErr != nil {
		return m.SnapshotErr
	}
	m.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

func (m *MockEventStore) LatestSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	snap, ok := m.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// EventCount returns the number of events stored for an aggregate.
func (m *MockEventStore) EventCount(aggregateID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[aggregateID])
}
