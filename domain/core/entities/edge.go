package entities

import (
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// EdgeType tags the kind of connection an edge represents.
type EdgeType string

const (
	EdgeTypeBelt EdgeType = "belt"
	EdgeTypePipe EdgeType = "pipe"
)

// Edge is a connection between two nodes on the same page. Endpoints are
// stored as raw id strings rather than node references so that serialized
// edges can be remapped id-for-id during import without touching nodes.
type Edge struct {
	id          string
	edgeType    EdgeType
	startNodeID string
	endNodeID   string
	properties  map[string]interface{}
}

// NewEdge creates an edge with unset endpoints. Endpoints are either set via
// SetEndpoints or, preferably, by the page's linking operation which also
// maintains node adjacency.
func NewEdge(id string, edgeType EdgeType) (*Edge, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if edgeType == "" {
		return nil, pkgerrors.NewValidationError("edge type cannot be empty")
	}
	return &Edge{
		id:         id,
		edgeType:   edgeType,
		properties: make(map[string]interface{}),
	}, nil
}

// ReconstructEdge recreates an edge from serialized data.
func ReconstructEdge(
	id string,
	edgeType EdgeType,
	startNodeID, endNodeID string,
	properties map[string]interface{},
) (*Edge, error) {
	edge, err := NewEdge(id, edgeType)
	if err != nil {
		return nil, err
	}
	edge.startNodeID = startNodeID
	edge.endNodeID = endNodeID
	for key, value := range properties {
		edge.properties[key] = value
	}
	return edge, nil
}

// ID returns the edge's unique identifier.
func (e *Edge) ID() string {
	return e.id
}

// Type returns the edge's type tag.
func (e *Edge) Type() EdgeType {
	return e.edgeType
}

// StartNodeID returns the id of the edge's start node.
func (e *Edge) StartNodeID() string {
	return e.startNodeID
}

// EndNodeID returns the id of the edge's end node.
func (e *Edge) EndNodeID() string {
	return e.endNodeID
}

// SetEndpoints sets both endpoint ids.
func (e *Edge) SetEndpoints(startNodeID, endNodeID string) {
	e.startNodeID = startNodeID
	e.endNodeID = endNodeID
}

// References checks whether either endpoint is the given node id.
func (e *Edge) References(nodeID string) bool {
	return e.startNodeID == nodeID || e.endNodeID == nodeID
}

// Property returns a property bag value.
func (e *Edge) Property(key string) (interface{}, bool) {
	value, ok := e.properties[key]
	return value, ok
}

// SetProperty sets a property bag value.
func (e *Edge) SetProperty(key string, value interface{}) {
	e.properties[key] = value
}

// Properties returns a copy of the property bag.
func (e *Edge) Properties() map[string]interface{} {
	props := make(map[string]interface{}, len(e.properties))
	for key, value := range e.properties {
		props[key] = value
	}
	return props
}
