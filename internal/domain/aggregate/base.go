package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/jewel-storefront/internal/infrastructure/store"
)

// Aggregate defines the interface for event-sourced aggregates
type Aggregate interface {
	GetID() string
	GetVersion() int
	SetVersion(int)
	ApplyEvent(store.Event) error
}

// Load rebuilds an aggregate from its latest snapshot plus the events after
// it. found is false when the aggregate has no history at all.
func Load[T Aggregate](
	ctx context.Context,
	eventStore store.EventStore,
	id string,
	newAggregate func() T,
) (agg T, found bool, err error) {
	agg = newAggregate()

	snapshot, err := eventStore.LatestSnapshot(ctx, id)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	from := 0
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			var zero T
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		agg.SetVersion(snapshot.Version)
		from = snapshot.Version
	}

	events, err := eventStore.Events(ctx, id, from)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to load events: %w", err)
	}

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			var zero T
			return zero, false, fmt.Errorf("failed to apply event %s: %w", event.ID, err)
		}
		agg.SetVersion(event.Version)
	}

	return agg, snapshot != nil || len(events) > 0, nil
}

// MaybeSnapshot saves the aggregate state when its version hits the threshold.
func MaybeSnapshot(ctx context.Context, eventStore store.EventStore, agg Aggregate, aggregateType string) error {
	version := agg.GetVersion()
	if !store.ShouldSnapshot(version) {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	snapshot := &store.Snapshot{
		AggregateID:   agg.GetID(),
		AggregateType: aggregateType,
		Version:       version,
		State:         state,
		CreatedAt:     time.Now(),
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
