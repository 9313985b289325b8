// Package valueobjects contains the small immutable value types of the plan
// domain.
package valueobjects

// Position is a 2D location on a page's layout surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position.
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Equals checks positional equality.
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Translate returns the position shifted by (dx, dy).
func (p Position) Translate(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}
