package identity

// IDMapper rewrites foreign identifiers into freshly allocated local ones
// during a single import, paste or duplicate operation. Every distinct
// foreign id maps to exactly one new id, and new ids can never collide with
// ids already present in the target document because they come from that
// document's own allocator.
//
// A mapper is valid for one operation only. Reusing it across unrelated
// operations would treat repeated foreign ids as identical and silently
// merge entities, so callers must discard it once the import completes.
type IDMapper struct {
	gen     *IDGen
	mapping map[string]string
}

// NewIDMapper creates a mapper backed by the target document's allocator.
func NewIDMapper(gen *IDGen) *IDMapper {
	return &IDMapper{
		gen:     gen,
		mapping: make(map[string]string),
	}
}

// MapID returns the local id for a foreign id, allocating one on first
// sight. Repeated calls with the same foreign id return the same local id.
func (m *IDMapper) MapID(oldID string) string {
	if newID, ok := m.mapping[oldID]; ok {
		return newID
	}
	newID := m.gen.Allocate()
	m.mapping[oldID] = newID
	return newID
}

// MapIDs maps a list of foreign ids, preserving order.
func (m *IDMapper) MapIDs(oldIDs []string) []string {
	if oldIDs == nil {
		return nil
	}
	newIDs := make([]string, len(oldIDs))
	for i, id := range oldIDs {
		newIDs[i] = m.MapID(id)
	}
	return newIDs
}

// Len returns the number of distinct foreign ids seen so far.
func (m *IDMapper) Len() int {
	return len(m.mapping)
}
