// Package memory provides an in-memory PlanStore for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// Store keeps plans in process memory, keyed by owner and plan key.
type Store struct {
	mu    sync.RWMutex
	plans map[string]map[string]*ports.PlanRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		plans: make(map[string]map[string]*ports.PlanRecord),
	}
}

// Get retrieves a plan.
func (s *Store) Get(ctx context.Context, ownerID, key string) (*ports.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.plans[ownerID][key]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("plan")
	}
	return copyRecord(record), nil
}

// Set creates or overwrites a plan.
func (s *Store) Set(ctx context.Context, record *ports.PlanRecord) error {
	if record == nil || record.Key == "" || record.OwnerID == "" {
		return pkgerrors.NewValidationError("plan record must have a key and an owner")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.plans[record.OwnerID]
	if !ok {
		owner = make(map[string]*ports.PlanRecord)
		s.plans[record.OwnerID] = owner
	}
	owner[record.Key] = copyRecord(record)
	return nil
}

// Delete removes a plan.
func (s *Store) Delete(ctx context.Context, ownerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[ownerID][key]; !ok {
		return pkgerrors.NewNotFoundError("plan")
	}
	delete(s.plans[ownerID], key)
	return nil
}

// List retrieves all plans of an owner, most recently updated first.
func (s *Store) List(ctx context.Context, ownerID string) ([]*ports.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*ports.PlanRecord, 0, len(s.plans[ownerID]))
	for _, record := range s.plans[ownerID] {
		records = append(records, copyRecord(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

func copyRecord(record *ports.PlanRecord) *ports.PlanRecord {
	dup := *record
	dup.Data = append([]byte(nil), record.Data...)
	return &dup
}
