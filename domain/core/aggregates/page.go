// Package aggregates contains the plan document model: pages of nodes and
// edges, and the document that owns them. Aggregates enforce the structural
// invariants; entities stay passive.
package aggregates

import (
	"fmt"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/identity"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// PasteSource tags where imported page content came from. Pages run a
// source-specific adjustment after their ids have been remapped.
type PasteSource string

const (
	// PasteSourceInternal is content copied within the same document.
	PasteSourceInternal PasteSource = "internal"
	// PasteSourceExternal is content pasted from another document or
	// process, e.g. via the system clipboard.
	PasteSourceExternal PasteSource = "external"
	// PasteSourceDuplicate is a page duplication within the document.
	PasteSourceDuplicate PasteSource = "duplicate"
)

// Page is an independent graph of nodes and edges with its own name and view
// state. Every mutation validates first and only then mutates, so a failed
// call leaves the page untouched.
//
// Invariant: for every edge E on the page, E's start and end nodes exist on
// the page and both carry E's id in their incident-edge sets, provided edges
// are created through AddEdgeBetweenNodes.
type Page struct {
	id    string
	name  string
	view  valueobjects.ViewState
	nodes map[string]*entities.Node
	edges map[string]*entities.Edge
}

// NewPage creates an empty page with the default view state.
func NewPage(id, name string) (*Page, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("page id cannot be empty")
	}
	return &Page{
		id:    id,
		name:  name,
		view:  valueobjects.DefaultViewState(),
		nodes: make(map[string]*entities.Node),
		edges: make(map[string]*entities.Edge),
	}, nil
}

// ID returns the page's unique identifier.
func (p *Page) ID() string {
	return p.id
}

// Name returns the page's display name.
func (p *Page) Name() string {
	return p.name
}

// SetName sets the page's display name.
func (p *Page) SetName(name string) {
	p.name = name
}

// View returns the page's view state.
func (p *Page) View() valueobjects.ViewState {
	return p.view
}

// SetView sets the page's view state.
func (p *Page) SetView(view valueobjects.ViewState) {
	p.view = view
}

// Node returns the node with the given id.
func (p *Page) Node(id string) (*entities.Node, error) {
	node, ok := p.nodes[id]
	if !ok {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %s not found on page %s", id, p.id))
	}
	return node, nil
}

// Edge returns the edge with the given id.
func (p *Page) Edge(id string) (*entities.Edge, error) {
	edge, ok := p.edges[id]
	if !ok {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge %s not found on page %s", id, p.id))
	}
	return edge, nil
}

// HasNode checks whether the page contains the given node id.
func (p *Page) HasNode(id string) bool {
	_, ok := p.nodes[id]
	return ok
}

// HasEdge checks whether the page contains the given edge id.
func (p *Page) HasEdge(id string) bool {
	_, ok := p.edges[id]
	return ok
}

// NodeCount returns the number of nodes on the page.
func (p *Page) NodeCount() int {
	return len(p.nodes)
}

// EdgeCount returns the number of edges on the page.
func (p *Page) EdgeCount() int {
	return len(p.edges)
}

// Nodes returns the page's nodes keyed by id. The map is a copy, the node
// pointers are shared.
func (p *Page) Nodes() map[string]*entities.Node {
	nodes := make(map[string]*entities.Node, len(p.nodes))
	for id, node := range p.nodes {
		nodes[id] = node
	}
	return nodes
}

// Edges returns the page's edges keyed by id. The map is a copy, the edge
// pointers are shared.
func (p *Page) Edges() map[string]*entities.Edge {
	edges := make(map[string]*entities.Edge, len(p.edges))
	for id, edge := range p.edges {
		edges[id] = edge
	}
	return edges
}

// EdgesAt returns the edges incident to the given node, resolved through the
// node's adjacency set, in stable order.
func (p *Page) EdgesAt(nodeID string) ([]*entities.Edge, error) {
	node, err := p.Node(nodeID)
	if err != nil {
		return nil, err
	}
	ids := node.EdgeIDs()
	edges := make([]*entities.Edge, 0, len(ids))
	for _, id := range ids {
		if edge, ok := p.edges[id]; ok {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

// AddNode inserts a node. Fails if a node with the same id already exists.
func (p *Page) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := p.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("node %s already exists on page %s", node.ID(), p.id))
	}
	p.nodes[node.ID()] = node
	return nil
}

// RemoveNode removes a node by id. Fails if the node does not exist.
//
// Edges referencing the node are NOT removed; callers are expected to remove
// dependent edges first. See Document-level operations for the paired
// cleanup.
func (p *Page) RemoveNode(id string) error {
	if _, exists := p.nodes[id]; !exists {
		return pkgerrors.NewValidationError(fmt.Sprintf("node %s not found on page %s", id, p.id))
	}
	delete(p.nodes, id)
	return nil
}

// AddEdge inserts an edge exactly as given, without validating endpoints or
// updating node adjacency. It exists for deserialization and for callers that
// maintain adjacency themselves; interactive edge creation should use
// AddEdgeBetweenNodes.
func (p *Page) AddEdge(edge *entities.Edge) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	if _, exists := p.edges[edge.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("edge %s already exists on page %s", edge.ID(), p.id))
	}
	p.edges[edge.ID()] = edge
	return nil
}

// AddEdgeBetweenNodes links two nodes with the given edge. Both nodes must
// exist on the page and the edge id must be free; validation happens before
// any mutation, so the page never holds a half-linked edge. On success the
// edge's endpoints are set and its id is attached to both nodes.
func (p *Page) AddEdgeBetweenNodes(edge *entities.Edge, startNodeID, endNodeID string) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	startNode, ok := p.nodes[startNodeID]
	if !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("start node %s not found on page %s", startNodeID, p.id))
	}
	endNode, ok := p.nodes[endNodeID]
	if !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("end node %s not found on page %s", endNodeID, p.id))
	}
	if _, exists := p.edges[edge.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("edge %s already exists on page %s", edge.ID(), p.id))
	}

	edge.SetEndpoints(startNodeID, endNodeID)
	p.edges[edge.ID()] = edge
	startNode.AttachEdge(edge.ID())
	endNode.AttachEdge(edge.ID())
	return nil
}

// RemoveEdge removes an edge by id. Fails if the edge does not exist.
//
// Node adjacency sets are NOT updated; callers perform the paired cleanup.
func (p *Page) RemoveEdge(id string) error {
	if _, exists := p.edges[id]; !exists {
		return pkgerrors.NewValidationError(fmt.Sprintf("edge %s not found on page %s", id, p.id))
	}
	delete(p.edges, id)
	return nil
}

// Validate checks the page's structural invariants: every edge's endpoints
// exist and adjacency sets agree with edge endpoints in both directions.
func (p *Page) Validate() error {
	for id, edge := range p.edges {
		start, ok := p.nodes[edge.StartNodeID()]
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge %s references missing start node %s", id, edge.StartNodeID()))
		}
		end, ok := p.nodes[edge.EndNodeID()]
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge %s references missing end node %s", id, edge.EndNodeID()))
		}
		if !start.HasEdge(id) || !end.HasEdge(id) {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge %s is not recorded on both endpoint nodes", id))
		}
	}
	for nodeID, node := range p.nodes {
		for _, edgeID := range node.EdgeIDs() {
			edge, ok := p.edges[edgeID]
			if !ok {
				return pkgerrors.NewValidationError(fmt.Sprintf("node %s lists missing edge %s", nodeID, edgeID))
			}
			if !edge.References(nodeID) {
				return pkgerrors.NewValidationError(fmt.Sprintf("node %s lists edge %s that does not reference it", nodeID, edgeID))
			}
		}
	}
	return nil
}

// applyPasteAdjustment runs after the page's ids have been remapped during an
// import. External content arrives in a foreign viewport, so its view state
// is reset; internal copies and duplicates keep theirs.
func (p *Page) applyPasteAdjustment(mapper *identity.IDMapper, source PasteSource) {
	_ = mapper
	if source == PasteSourceExternal {
		p.view = valueobjects.DefaultViewState()
	}
}

// toRecord converts the page to its serialized shape.
func (p *Page) toRecord() pageRecord {
	record := pageRecord{
		ID:    p.id,
		Name:  p.name,
		View:  p.view,
		Nodes: make(map[string]nodeRecord, len(p.nodes)),
		Edges: make(map[string]edgeRecord, len(p.edges)),
	}
	for id, node := range p.nodes {
		record.Nodes[id] = nodeRecord{
			ID:         node.ID(),
			Type:       string(node.Type()),
			Position:   node.Position(),
			Edges:      node.EdgeIDs(),
			Properties: node.Properties(),
		}
	}
	for id, edge := range p.edges {
		record.Edges[id] = edgeRecord{
			ID:          edge.ID(),
			Type:        string(edge.Type()),
			StartNodeID: edge.StartNodeID(),
			EndNodeID:   edge.EndNodeID(),
			Properties:  edge.Properties(),
		}
	}
	return record
}

// pageFromRecord reconstructs a page from its serialized shape, validating
// that map keys match entity ids and that edge endpoints resolve.
func pageFromRecord(record pageRecord) (*Page, error) {
	page, err := NewPage(record.ID, record.Name)
	if err != nil {
		return nil, err
	}
	page.view = record.View
	if page.view.Scale == 0 {
		page.view.Scale = 1.0
	}

	// Deterministic reconstruction order keeps error messages stable.
	for _, key := range sortedKeys(record.Nodes) {
		nr := record.Nodes[key]
		if key != nr.ID {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("node map key %s does not match node id %s", key, nr.ID))
		}
		node, err := entities.ReconstructNode(nr.ID, entities.NodeType(nr.Type), nr.Position, nr.Edges, nr.Properties)
		if err != nil {
			return nil, err
		}
		page.nodes[node.ID()] = node
	}

	for _, key := range sortedKeys(record.Edges) {
		er := record.Edges[key]
		if key != er.ID {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge map key %s does not match edge id %s", key, er.ID))
		}
		if _, ok := page.nodes[er.StartNodeID]; !ok {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge %s references missing start node %s", er.ID, er.StartNodeID))
		}
		if _, ok := page.nodes[er.EndNodeID]; !ok {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge %s references missing end node %s", er.ID, er.EndNodeID))
		}
		edge, err := entities.ReconstructEdge(er.ID, entities.EdgeType(er.Type), er.StartNodeID, er.EndNodeID, er.Properties)
		if err != nil {
			return nil, err
		}
		page.edges[edge.ID()] = edge
	}

	return page, nil
}
