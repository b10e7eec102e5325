package projection

import (
	"context"

	"github.com/example/jewel-storefront/internal/infrastructure/store"
)

// InlinePublisher projects events in-process, for deployments without a broker.
type InlinePublisher struct {
	projector *Projector
}

func NewInlinePublisher(p *Projector) *InlinePublisher {
	return &InlinePublisher{projector: p}
}

func (i *InlinePublisher) Publish(ctx context.Context, event store.Event) error {
	return i.projector.Apply(ctx, event)
}
