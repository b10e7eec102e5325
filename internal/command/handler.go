package command

import (
	"context"
	"log"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/domain/product"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/example/jewel-storefront/internal/metrics"
)

// Publisher delivers committed events to the read side.
type Publisher interface {
	Publish(ctx context.Context, event store.Event) error
}

type Handler struct {
	productSvc *product.Service
	publisher  Publisher
	metrics    *metrics.AppMetrics
}

func NewHandler(productSvc *product.Service, publisher Publisher, m *metrics.AppMetrics) *Handler {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Handler{
		productSvc: productSvc,
		publisher:  publisher,
		metrics:    m,
	}
}

// CreateProduct records a new product and publishes ProductCreated.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (catalog.Product, error) {
	p, event, err := h.productSvc.Create(ctx, cmd.Input)
	if err != nil {
		return catalog.Product{}, err
	}
	h.publish(ctx, event)
	h.metrics.Inc(ctx, h.metrics.ProductsCreated)
	return p, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (catalog.Product, error) {
	p, event, err := h.productSvc.Update(ctx, cmd.ProductID, cmd.Input)
	if err != nil {
		return catalog.Product{}, err
	}
	h.publish(ctx, event)
	h.metrics.Inc(ctx, h.metrics.ProductsUpdated)
	return p, nil
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	event, err := h.productSvc.Delete(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	h.publish(ctx, event)
	h.metrics.Inc(ctx, h.metrics.ProductsDeleted)
	return nil
}

// publish never fails the command: the event is already in the log and the
// read store catches up on the next replay.
func (h *Handler) publish(ctx context.Context, event *store.Event) {
	if h.publisher == nil || event == nil {
		return
	}
	if err := h.publisher.Publish(ctx, *event); err != nil {
		log.Printf("[Command] Failed to publish %s for %s: %v", event.EventType, event.AggregateID, err)
	}
}
