// Package ports defines the interfaces the application layer depends on.
// These are ports in hexagonal architecture; the domain does not know about
// the implementations.
package ports

import (
	"context"
	"time"
)

// PlanRecord is a persisted plan: its identity, display metadata and the
// serialized document.
type PlanRecord struct {
	Key       string
	OwnerID   string
	Name      string
	UpdatedAt time.Time
	Data      []byte
}

// PlanStore defines the interface for plan persistence. Plans are stored
// as opaque serialized documents keyed by owner and plan key.
type PlanStore interface {
	// Get retrieves a plan. Returns a not-found error when absent.
	Get(ctx context.Context, ownerID, key string) (*PlanRecord, error)

	// Set creates or overwrites a plan.
	Set(ctx context.Context, record *PlanRecord) error

	// Delete removes a plan. Returns a not-found error when absent.
	Delete(ctx context.Context, ownerID, key string) error

	// List retrieves all plans of an owner. Record Data may be omitted.
	List(ctx context.Context, ownerID string) ([]*PlanRecord, error)
}
