package engine

// ManhattanDistance calculates the Manhattan distance between two coordinates
func ManhattanDistance(from, to Coordinate) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// ChebyshevDistance calculates the Chebyshev (king-move) distance between two coordinates
func ChebyshevDistance(from, to Coordinate) int {
	dx, dy := abs(from.X-to.X), abs(from.Y-to.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// ExpectedSpawnLevel returns the mean level produced by a distribution
func ExpectedSpawnLevel(d LevelDistribution) float64 {
	return float64(d.Level1*1+d.Level2*2+d.Level3*3) / float64(DistributionTotal)
}

// CountLevel counts blocks of a given level on the grid
func CountLevel(grid *GridState, level int) int {
	count := 0
	for _, b := range grid.AllBlocks() {
		if b.Level == level {
			count++
		}
	}
	return count
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
