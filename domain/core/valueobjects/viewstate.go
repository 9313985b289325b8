package valueobjects

// ViewState captures a page's presentation state: pan offset and zoom scale.
// It is carried through serialization for the editor's convenience but is
// excluded from the structural invariants of the document model.
type ViewState struct {
	Offset Position `json:"offset"`
	Scale  float64  `json:"scale"`
}

// DefaultViewState returns an unpanned view at 1:1 zoom.
func DefaultViewState() ViewState {
	return ViewState{Scale: 1.0}
}

// Equals checks view-state equality.
func (v ViewState) Equals(other ViewState) bool {
	return v.Offset.Equals(other.Offset) && v.Scale == other.Scale
}
