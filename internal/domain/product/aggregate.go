package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/domain/aggregate"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Product"

var ErrProductNotFound = errors.New("product not found")

// Product is the write-side aggregate.
type Product struct {
	State   catalog.Product `json:"state"`
	Deleted bool            `json:"deleted,omitempty"`
	Version int             `json:"version"`
}

// Aggregate interface implementation
func (p *Product) GetID() string    { return p.State.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.State = data.Product
		p.Deleted = false
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.State = data.Product
	case EventProductDeleted:
		p.Deleted = true
	default:
		return fmt.Errorf("unknown product event type %q", event.EventType)
	}
	return nil
}

type Service struct {
	eventStore store.EventStore
	now        func() time.Time
}

func NewService(es store.EventStore) *Service {
	return &Service{eventStore: es, now: time.Now}
}

// Create validates in and records a new product.
func (s *Service) Create(ctx context.Context, in Input) (catalog.Product, *store.Event, error) {
	in, err := in.Normalize()
	if err != nil {
		return catalog.Product{}, nil, err
	}

	now := s.now().UnixMilli()
	p := catalog.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	event, err := s.eventStore.Append(ctx, p.ID, AggregateType, EventProductCreated, 0, ProductCreated{Product: p})
	if err != nil {
		return catalog.Product{}, nil, fmt.Errorf("failed to append %s: %w", EventProductCreated, err)
	}
	return p, event, nil
}

// Update replaces every editable field of an existing product.
func (s *Service) Update(ctx context.Context, id string, in Input) (catalog.Product, *store.Event, error) {
	in, err := in.Normalize()
	if err != nil {
		return catalog.Product{}, nil, err
	}

	agg, err := s.load(ctx, id)
	if err != nil {
		return catalog.Product{}, nil, err
	}

	p := agg.State
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Image = in.Image
	p.Images = in.Images
	p.UpdatedAt = s.now().UnixMilli()

	event, err := s.eventStore.Append(ctx, id, AggregateType, EventProductUpdated, agg.Version, ProductUpdated{Product: p})
	if err != nil {
		return catalog.Product{}, nil, fmt.Errorf("failed to append %s: %w", EventProductUpdated, err)
	}
	s.snapshot(ctx, agg, *event)
	return p, event, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*store.Event, error) {
	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	data := ProductDeleted{ProductID: id, DeletedAt: s.now().UnixMilli()}
	event, err := s.eventStore.Append(ctx, id, AggregateType, EventProductDeleted, agg.Version, data)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s: %w", EventProductDeleted, err)
	}
	s.snapshot(ctx, agg, *event)
	return event, nil
}

// Get returns the current write-side state of a product.
func (s *Service) Get(ctx context.Context, id string) (catalog.Product, error) {
	agg, err := s.load(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	return agg.State, nil
}

func (s *Service) load(ctx context.Context, id string) (*Product, error) {
	agg, found, err := aggregate.Load(ctx, s.eventStore, id, func() *Product { return &Product{} })
	if err != nil {
		return nil, err
	}
	if !found || agg.Deleted {
		return nil, ErrProductNotFound
	}
	return agg, nil
}

// snapshot folds event into agg and saves a snapshot when one is due.
// A failed snapshot is logged; the event is already durable.
func (s *Service) snapshot(ctx context.Context, agg *Product, event store.Event) {
	if err := agg.ApplyEvent(event); err != nil {
		log.Printf("[Product] Failed to apply %s for snapshot: %v", event.EventType, err)
		return
	}
	agg.SetVersion(event.Version)
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, agg, AggregateType); err != nil {
		log.Printf("[Product] Failed to snapshot %s: %v", agg.GetID(), err)
	}
}
