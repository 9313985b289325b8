// Package events defines the domain events emitted by the plan service.
// Events represent something that has happened in the past.
package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// PlanCreated is raised when a new plan is created.
type PlanCreated struct {
	BaseEvent
	PlanKey string `json:"plan_key"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

// NewPlanCreated creates a PlanCreated event.
func NewPlanCreated(planKey, ownerID, name string, timestamp time.Time) PlanCreated {
	return PlanCreated{
		BaseEvent: BaseEvent{
			AggregateID: planKey,
			EventType:   "plan.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanKey: planKey,
		OwnerID: ownerID,
		Name:    name,
	}
}

// PlanSaved is raised when a plan's document state is persisted.
type PlanSaved struct {
	BaseEvent
	PlanKey   string `json:"plan_key"`
	OwnerID   string `json:"owner_id"`
	PageCount int    `json:"page_count"`
	SizeBytes int    `json:"size_bytes"`
}

// NewPlanSaved creates a PlanSaved event.
func NewPlanSaved(planKey, ownerID string, pageCount, sizeBytes int, timestamp time.Time) PlanSaved {
	return PlanSaved{
		BaseEvent: BaseEvent{
			AggregateID: planKey,
			EventType:   "plan.saved",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanKey:   planKey,
		OwnerID:   ownerID,
		PageCount: pageCount,
		SizeBytes: sizeBytes,
	}
}

// PlanDeleted is raised when a plan is deleted.
type PlanDeleted struct {
	BaseEvent
	PlanKey string `json:"plan_key"`
	OwnerID string `json:"owner_id"`
}

// NewPlanDeleted creates a PlanDeleted event.
func NewPlanDeleted(planKey, ownerID string, timestamp time.Time) PlanDeleted {
	return PlanDeleted{
		BaseEvent: BaseEvent{
			AggregateID: planKey,
			EventType:   "plan.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		PlanKey: planKey,
		OwnerID: ownerID,
	}
}
