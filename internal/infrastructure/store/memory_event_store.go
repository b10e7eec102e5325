package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryEventStore keeps events for the life of the process.
type MemoryEventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	order     []Event
	snapshots map[string]Snapshot
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]Snapshot),
	}
}

func (es *MemoryEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if current := len(es.events[aggregateID]); current != expectedVersion {
		return nil, ErrVersionConflict
	}

	event, err := newEvent(uuid.New().String(), aggregateID, aggregateType, eventType, expectedVersion+1, data, time.Now())
	if err != nil {
		return nil, err
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.order = append(es.order, event)
	return &event, nil
}

func (es *MemoryEventStore) Events(ctx context.Context, aggregateID string, afterVersion int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var out []Event
	for _, e := range es.events[aggregateID] {
		if e.Version > afterVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

func (es *MemoryEventStore) AllEvents(ctx context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return slices.Clone(es.order), nil
}

func (es *MemoryEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

func (es *MemoryEventStore) LatestSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	snap, ok := es.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}
