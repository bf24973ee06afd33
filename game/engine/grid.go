package engine

import "fmt"

// GridState owns the board. Blocks are handed out by value; all mutation
// goes through Set, SetLevel and Remove.
type GridState struct {
	size  int
	cells [][]int // [y][x] level, 0 means empty
	count int
}

// NewGridState creates an empty size x size grid
func NewGridState(size int) *GridState {
	cells := make([][]int, size)
	for y := range cells {
		cells[y] = make([]int, size)
	}
	return &GridState{size: size, cells: cells}
}

// Size returns the grid edge length
func (g *GridState) Size() int {
	return g.size
}

// Count returns the number of occupied cells
func (g *GridState) Count() int {
	return g.count
}

// InBounds reports whether pos lies on the grid
func (g *GridState) InBounds(pos Coordinate) bool {
	return pos.X >= 0 && pos.X < g.size && pos.Y >= 0 && pos.Y < g.size
}

// Get returns the block at pos, if any
func (g *GridState) Get(pos Coordinate) (Block, bool) {
	if !g.InBounds(pos) {
		return Block{}, false
	}
	level := g.cells[pos.Y][pos.X]
	if level == 0 {
		return Block{}, false
	}
	return Block{Level: level, Position: pos}, true
}

// Set places a new block of the given level at an empty cell
func (g *GridState) Set(pos Coordinate, level int) error {
	if !g.InBounds(pos) {
		return fmt.Errorf("set (%d,%d): %w", pos.X, pos.Y, ErrOutOfBounds)
	}
	if level < 1 {
		return fmt.Errorf("set (%d,%d) level %d: %w", pos.X, pos.Y, level, ErrInvalidLevel)
	}
	if g.cells[pos.Y][pos.X] != 0 {
		return fmt.Errorf("set (%d,%d): %w", pos.X, pos.Y, ErrCellOccupied)
	}
	g.cells[pos.Y][pos.X] = level
	g.count++
	return nil
}

// SetLevel changes the level of an existing block
func (g *GridState) SetLevel(pos Coordinate, level int) error {
	if !g.InBounds(pos) {
		return fmt.Errorf("set level (%d,%d): %w", pos.X, pos.Y, ErrOutOfBounds)
	}
	if level < 1 {
		return fmt.Errorf("set level (%d,%d) level %d: %w", pos.X, pos.Y, level, ErrInvalidLevel)
	}
	if g.cells[pos.Y][pos.X] == 0 {
		return fmt.Errorf("set level (%d,%d): %w", pos.X, pos.Y, ErrCellEmpty)
	}
	g.cells[pos.Y][pos.X] = level
	return nil
}

// Remove clears a cell. Removing an empty or out-of-bounds cell is a no-op.
func (g *GridState) Remove(pos Coordinate) {
	if !g.InBounds(pos) || g.cells[pos.Y][pos.X] == 0 {
		return
	}
	g.cells[pos.Y][pos.X] = 0
	g.count--
}

// EmptyCells returns all empty coordinates in row-major order
func (g *GridState) EmptyCells() []Coordinate {
	empty := make([]Coordinate, 0, g.size*g.size-g.count)
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			if g.cells[y][x] == 0 {
				empty = append(empty, Coordinate{X: x, Y: y})
			}
		}
	}
	return empty
}

// Neighbors returns occupied 4-directional neighbors (up, right, down, left)
func (g *GridState) Neighbors(pos Coordinate) []Block {
	neighbors := make([]Block, 0, 4)
	for _, d := range cardinalDirections {
		if b, ok := g.Get(Coordinate{X: pos.X + d.X, Y: pos.Y + d.Y}); ok {
			neighbors = append(neighbors, b)
		}
	}
	return neighbors
}

// BlocksInRadius returns occupied cells within Chebyshev distance r of
// center, excluding center, in row-major order
func (g *GridState) BlocksInRadius(center Coordinate, r int) []Block {
	var blocks []Block
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if b, ok := g.Get(Coordinate{X: center.X + dx, Y: center.Y + dy}); ok {
				blocks = append(blocks, b)
			}
		}
	}
	return blocks
}

// AllBlocks returns every block in row-major order
func (g *GridState) AllBlocks() []Block {
	blocks := make([]Block, 0, g.count)
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			if level := g.cells[y][x]; level != 0 {
				blocks = append(blocks, Block{Level: level, Position: Coordinate{X: x, Y: y}})
			}
		}
	}
	return blocks
}

// Clone returns a deep copy of the grid
func (g *GridState) Clone() *GridState {
	c := NewGridState(g.size)
	for y := range g.cells {
		copy(c.cells[y], g.cells[y])
	}
	c.count = g.count
	return c
}

// Levels returns a copy of the board as rows of levels (0 = empty)
func (g *GridState) Levels() [][]int {
	rows := make([][]int, g.size)
	for y := range g.cells {
		rows[y] = append([]int(nil), g.cells[y]...)
	}
	return rows
}

var cardinalDirections = []Coordinate{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}
