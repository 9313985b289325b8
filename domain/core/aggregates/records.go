package aggregates

import (
	"sort"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/identity"
)

// Serialized plan format constants. Version and type act as hard
// compatibility gates: a document with a different version or type tag is
// rejected at the boundary, never partially loaded.
const (
	DocumentFormatVersion = 3
	DocumentFormatType    = "factory-plan"
)

// documentRecord is the persisted/exchanged JSON shape of a whole document.
type documentRecord struct {
	Version       int             `json:"version"`
	Type          string          `json:"type"`
	IDGen         *identity.IDGen `json:"idGen"`
	CurrentPageID string          `json:"currentPageId"`
	Pages         []pageRecord    `json:"pages"`
}

// pageRecord is the serialized shape of one page.
type pageRecord struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	View  valueobjects.ViewState `json:"view"`
	Nodes map[string]nodeRecord  `json:"nodes"`
	Edges map[string]edgeRecord  `json:"edges"`
}

// nodeRecord is the serialized shape of one node.
type nodeRecord struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Position   valueobjects.Position  `json:"position"`
	Edges      []string               `json:"edges"`
	Properties map[string]interface{} `json:"properties"`
}

// edgeRecord is the serialized shape of one edge. Endpoints are raw id
// strings, which is what makes import-time id remapping a pure record
// rewrite.
type edgeRecord struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	StartNodeID string                 `json:"startNodeId"`
	EndNodeID   string                 `json:"endNodeId"`
	Properties  map[string]interface{} `json:"properties"`
}

// remapIDs rewrites every id-bearing field of the page record through the
// mapper: the page id, node ids (map key and id field), adjacency lists,
// edge ids and edge endpoints. All fields go through the same mapper
// instance, so cross-references stay structurally consistent. Keys are
// visited in sorted order so the same payload always remaps the same way.
func (r *pageRecord) remapIDs(mapper *identity.IDMapper) {
	r.ID = mapper.MapID(r.ID)

	nodes := make(map[string]nodeRecord, len(r.Nodes))
	for _, key := range sortedKeys(r.Nodes) {
		node := r.Nodes[key]
		node.ID = mapper.MapID(node.ID)
		node.Edges = mapper.MapIDs(node.Edges)
		nodes[node.ID] = node
	}
	r.Nodes = nodes

	edges := make(map[string]edgeRecord, len(r.Edges))
	for _, key := range sortedKeys(r.Edges) {
		edge := r.Edges[key]
		edge.ID = mapper.MapID(edge.ID)
		edge.StartNodeID = mapper.MapID(edge.StartNodeID)
		edge.EndNodeID = mapper.MapID(edge.EndNodeID)
		edges[edge.ID] = edge
	}
	r.Edges = edges
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
