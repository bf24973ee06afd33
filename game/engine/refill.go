package engine

import "errors"

// Pick rolls a level from the distribution
func (d LevelDistribution) Pick(rng RandomSource) int {
	roll := rng.Intn(DistributionTotal)
	switch {
	case roll < d.Level1:
		return 1
	case roll < d.Level1+d.Level2:
		return 2
	default:
		return 3
	}
}

// RefillSystem spawns new blocks into empty cells
type RefillSystem struct {
	grid *GridState
	rng  RandomSource
}

// NewRefillSystem creates a refill system over grid using rng
func NewRefillSystem(grid *GridState, rng RandomSource) *RefillSystem {
	return &RefillSystem{grid: grid, rng: rng}
}

// SpawnOne places one block with a level drawn from dist at a uniformly
// chosen empty cell. A full board returns ErrBoardFull without consuming
// randomness.
func (r *RefillSystem) SpawnOne(dist LevelDistribution) (Block, error) {
	empty := r.grid.EmptyCells()
	if len(empty) == 0 {
		return Block{}, ErrBoardFull
	}

	level := dist.Pick(r.rng)
	pos := empty[r.rng.Intn(len(empty))]
	if err := r.grid.Set(pos, level); err != nil {
		return Block{}, err
	}
	return Block{Level: level, Position: pos}, nil
}

// SpawnStartingBoard spawns count blocks, stopping quietly when the board fills
func (r *RefillSystem) SpawnStartingBoard(count int, dist LevelDistribution) ([]Block, error) {
	spawned := make([]Block, 0, count)
	for i := 0; i < count; i++ {
		b, err := r.SpawnOne(dist)
		if errors.Is(err, ErrBoardFull) {
			break
		}
		if err != nil {
			return spawned, err
		}
		spawned = append(spawned, b)
	}
	return spawned, nil
}
