package ports

import (
	"context"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/events"
)

// EventBus defines the interface for publishing domain events.
type EventBus interface {
	// Publish sends a single event.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// NoopEventBus discards events. Used when no event infrastructure is
// configured, e.g. in local development.
type NoopEventBus struct{}

func (NoopEventBus) Publish(ctx context.Context, event events.DomainEvent) error { return nil }
func (NoopEventBus) PublishBatch(ctx context.Context, evs []events.DomainEvent) error {
	return nil
}
