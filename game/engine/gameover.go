package engine

// HasLegalMove reports whether any two 4-adjacent blocks share a level.
// This is the only termination predicate; a full board alone never ends a game.
func HasLegalMove(grid *GridState) bool {
	_, _, ok := FindLegalMove(grid)
	return ok
}

// FindLegalMove returns the first mergeable pair in row-major order.
// Only right and down neighbors are scanned since adjacency is symmetric.
func FindLegalMove(grid *GridState) (Coordinate, Coordinate, bool) {
	for _, b := range grid.AllBlocks() {
		for _, d := range []Coordinate{{X: 1, Y: 0}, {X: 0, Y: 1}} {
			other := Coordinate{X: b.Position.X + d.X, Y: b.Position.Y + d.Y}
			if n, ok := grid.Get(other); ok && n.Level == b.Level {
				return b.Position, other, true
			}
		}
	}
	return Coordinate{}, Coordinate{}, false
}

// CanMerge reports whether a and b are occupied, share a level and are
// orthogonally adjacent
func CanMerge(grid *GridState, a, b Coordinate) bool {
	if ManhattanDistance(a, b) != 1 {
		return false
	}
	ba, ok := grid.Get(a)
	if !ok {
		return false
	}
	bb, ok := grid.Get(b)
	if !ok {
		return false
	}
	return ba.Level == bb.Level
}
