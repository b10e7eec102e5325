package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/jewel-storefront/internal/domain/product"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/example/jewel-storefront/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// Projector folds product events into the catalog read store.
type Projector struct {
	catalog store.CatalogStore
	metrics *metrics.AppMetrics
}

func NewProjector(catalog store.CatalogStore, m *metrics.AppMetrics) *Projector {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Projector{catalog: catalog, metrics: m}
}

// HandleEvent decodes a published event. Its signature matches kafka.MessageHandler.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		p.metrics.Inc(ctx, p.metrics.ProjectionErrors)
		return fmt.Errorf("failed to decode event: %w", err)
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateID)
	return p.Apply(ctx, event)
}

// Apply projects a single event. Events of other aggregate types are ignored.
func (p *Projector) Apply(ctx context.Context, event store.Event) error {
	if event.AggregateType != product.AggregateType {
		return nil
	}

	if err := p.applyProductEvent(ctx, event); err != nil {
		p.metrics.Inc(ctx, p.metrics.ProjectionErrors, attribute.String("event_type", event.EventType))
		return err
	}
	p.metrics.Inc(ctx, p.metrics.EventsProjected, attribute.String("event_type", event.EventType))
	return nil
}

func (p *Projector) applyProductEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.catalog.Upsert(ctx, e.Product)

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		current, ok, err := p.catalog.Get(ctx, e.Product.ID)
		if err != nil {
			return err
		}
		// Redelivered updates must not roll the row back.
		if ok && current.UpdatedAt > e.Product.UpdatedAt {
			log.Printf("[Projector] Skipping stale update for %s", e.Product.ID)
			return nil
		}
		return p.catalog.Upsert(ctx, e.Product)

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.catalog.Delete(ctx, e.ProductID)

	default:
		log.Printf("[Projector] Ignoring unknown product event: %s", event.EventType)
		return nil
	}
}

// Replay rebuilds the read store from the full event log.
func (p *Projector) Replay(ctx context.Context, es store.EventStore) (int, error) {
	events, err := es.AllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	applied := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := p.Apply(ctx, event); err != nil {
			return applied, fmt.Errorf("failed to replay event %s: %w", event.ID, err)
		}
		applied++
	}
	log.Printf("[Projector] Replayed %d events", applied)
	return applied, nil
}
