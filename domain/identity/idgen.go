// Package identity owns identifier allocation for plan documents. Every
// entity id inside a document (pages, nodes, edges) comes from the
// document's single IDGen, so ids are unique for the document's whole
// lifetime and are never reused after deletion.
package identity

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// IDGen is a monotonic identifier allocator. Its counter is part of the
// persisted document state so allocation survives save/load round trips.
type IDGen struct {
	counter int64
}

// NewIDGen creates an allocator starting at zero.
func NewIDGen() *IDGen {
	return &IDGen{}
}

// ReconstructIDGen recreates an allocator from a persisted counter value.
func ReconstructIDGen(counter int64) (*IDGen, error) {
	if counter < 0 {
		return nil, pkgerrors.NewValidationError("id generator counter cannot be negative")
	}
	return &IDGen{counter: counter}, nil
}

// Allocate returns the next identifier. No two calls on the same generator
// ever return the same value.
func (g *IDGen) Allocate() string {
	id := strconv.FormatInt(g.counter, 10)
	g.counter++
	return id
}

// Counter returns the current counter value.
func (g *IDGen) Counter() int64 {
	return g.counter
}

// idGenRecord is the persisted JSON shape of the allocator.
type idGenRecord struct {
	Counter json.Number `json:"counter"`
}

// MarshalJSON serializes the allocator as {"counter": n}.
func (g *IDGen) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int64{"counter": g.counter})
}

// UnmarshalJSON restores the allocator, rejecting negative or non-integer
// counters.
func (g *IDGen) UnmarshalJSON(data []byte) error {
	var record idGenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return pkgerrors.NewValidationError("id generator state is not valid JSON").WithCause(err)
	}
	if record.Counter == "" {
		return pkgerrors.NewValidationError("id generator counter is missing")
	}
	counter, err := record.Counter.Int64()
	if err != nil {
		return pkgerrors.NewValidationError("id generator counter must be an integer").WithCause(err)
	}
	if counter < 0 {
		return pkgerrors.NewValidationError("id generator counter cannot be negative")
	}
	g.counter = counter
	return nil
}
