// Package entities contains the page-local graph entities of a plan: the
// placed building blocks (nodes) and the connections between them (edges).
package entities

import (
	"sort"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// NodeType tags what a node represents on the layout surface.
type NodeType string

const (
	NodeTypeMachine  NodeType = "machine"
	NodeTypeSplitter NodeType = "splitter"
	NodeTypeMerger   NodeType = "merger"
	NodeTypeResource NodeType = "resource"
	NodeTypeText     NodeType = "text"
)

// Well-known property bag keys. The bag is open: node types may carry any
// additional fields the editor needs.
const (
	PropertyRecipe    = "recipe"
	PropertyText      = "text"
	PropertyLocked    = "locked"
	PropertyOverclock = "overclock"
)

// Node is a placed element on a page. Its id is immutable for the node's
// lifetime. The incident-edge set is maintained by the owning page: it is
// exactly the set of edge ids whose start or end references this node, as
// long as callers only create edges through the page's linking operation.
type Node struct {
	id         string
	nodeType   NodeType
	position   valueobjects.Position
	edges      map[string]struct{}
	properties map[string]interface{}
}

// NewNode creates a node with an empty property bag and no incident edges.
func NewNode(id string, nodeType NodeType, position valueobjects.Position) (*Node, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if nodeType == "" {
		return nil, pkgerrors.NewValidationError("node type cannot be empty")
	}
	return &Node{
		id:         id,
		nodeType:   nodeType,
		position:   position,
		edges:      make(map[string]struct{}),
		properties: make(map[string]interface{}),
	}, nil
}

// ReconstructNode recreates a node from serialized data, preserving its
// incident-edge set and property bag as stored.
func ReconstructNode(
	id string,
	nodeType NodeType,
	position valueobjects.Position,
	edgeIDs []string,
	properties map[string]interface{},
) (*Node, error) {
	node, err := NewNode(id, nodeType, position)
	if err != nil {
		return nil, err
	}
	for _, edgeID := range edgeIDs {
		node.edges[edgeID] = struct{}{}
	}
	for key, value := range properties {
		node.properties[key] = value
	}
	return node, nil
}

// ID returns the node's unique identifier.
func (n *Node) ID() string {
	return n.id
}

// Type returns the node's type tag.
func (n *Node) Type() NodeType {
	return n.nodeType
}

// Position returns the node's position.
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// MoveTo moves the node to a new position.
func (n *Node) MoveTo(position valueobjects.Position) {
	n.position = position
}

// EdgeIDs returns the incident edge ids in stable order.
func (n *Node) EdgeIDs() []string {
	ids := make([]string, 0, len(n.edges))
	for id := range n.edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasEdge checks whether the given edge id is incident to this node.
func (n *Node) HasEdge(edgeID string) bool {
	_, ok := n.edges[edgeID]
	return ok
}

// EdgeCount returns the number of incident edges.
func (n *Node) EdgeCount() int {
	return len(n.edges)
}

// AttachEdge records an incident edge id. Idempotent.
func (n *Node) AttachEdge(edgeID string) {
	n.edges[edgeID] = struct{}{}
}

// DetachEdge removes an incident edge id. Removing an unknown id is a no-op.
func (n *Node) DetachEdge(edgeID string) {
	delete(n.edges, edgeID)
}

// Property returns a property bag value.
func (n *Node) Property(key string) (interface{}, bool) {
	value, ok := n.properties[key]
	return value, ok
}

// SetProperty sets a property bag value.
func (n *Node) SetProperty(key string, value interface{}) {
	n.properties[key] = value
}

// RemoveProperty deletes a property bag value.
func (n *Node) RemoveProperty(key string) {
	delete(n.properties, key)
}

// Properties returns a copy of the property bag.
func (n *Node) Properties() map[string]interface{} {
	props := make(map[string]interface{}, len(n.properties))
	for key, value := range n.properties {
		props[key] = value
	}
	return props
}

// Locked reports whether the node is locked against editing in the UI.
func (n *Node) Locked() bool {
	locked, _ := n.properties[PropertyLocked].(bool)
	return locked
}
