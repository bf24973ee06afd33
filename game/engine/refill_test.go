package engine

import (
	"errors"
	"testing"
)

func TestLevelDistribution_Pick(t *testing.T) {
	dist := LevelDistribution{Level1: 60, Level2: 30, Level3: 10}
	tests := []struct {
		roll int
		want int
	}{
		{0, 1},
		{59, 1},
		{60, 2},
		{89, 2},
		{90, 3},
		{99, 3},
	}
	for _, tt := range tests {
		got := dist.Pick(&sequenceRandom{values: []int{tt.roll}})
		if got != tt.want {
			t.Errorf("roll %d: got level %d, want %d", tt.roll, got, tt.want)
		}
	}

	t.Run("zero weight level never drawn", func(t *testing.T) {
		onlyThree := LevelDistribution{Level3: 100}
		for roll := 0; roll < 100; roll++ {
			if got := onlyThree.Pick(&sequenceRandom{values: []int{roll}}); got != 3 {
				t.Fatalf("roll %d: got level %d, want 3", roll, got)
			}
		}
	})
}

func TestRefillSystem_SpawnOne(t *testing.T) {
	g := NewGridState(4)
	g.Set(Coordinate{X: 0, Y: 0}, 5)

	// level roll 95 -> 3, cell index 2 -> third empty cell (3,0)
	rng := &sequenceRandom{values: []int{95, 2}}
	r := NewRefillSystem(g, rng)

	b, err := r.SpawnOne(LevelDistribution{Level1: 60, Level2: 30, Level3: 10})
	if err != nil {
		t.Fatalf("SpawnOne failed: %v", err)
	}
	if b.Level != 3 || b.Position != (Coordinate{X: 3, Y: 0}) {
		t.Errorf("Unexpected spawn %+v", b)
	}
	if got, ok := g.Get(b.Position); !ok || got.Level != 3 {
		t.Error("Spawned block not on grid")
	}
}

func TestRefillSystem_BoardFull(t *testing.T) {
	g := NewGridState(4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			g.Set(Coordinate{X: x, Y: y}, 1)
		}
	}

	rng := &sequenceRandom{}
	r := NewRefillSystem(g, rng)
	_, err := r.SpawnOne(DefaultGameConfig().LevelDistribution)
	if !errors.Is(err, ErrBoardFull) {
		t.Fatalf("Expected ErrBoardFull, got %v", err)
	}
	if rng.calls != 0 {
		t.Errorf("Full board should not consume randomness, got %d calls", rng.calls)
	}
}

func TestRefillSystem_SpawnStartingBoard(t *testing.T) {
	t.Run("spawns requested count", func(t *testing.T) {
		g := NewGridState(5)
		r := NewRefillSystem(g, NewRandomSource(42))
		blocks, err := r.SpawnStartingBoard(5, DefaultGameConfig().LevelDistribution)
		if err != nil {
			t.Fatalf("SpawnStartingBoard failed: %v", err)
		}
		if len(blocks) != 5 || g.Count() != 5 {
			t.Errorf("Expected 5 blocks, got %d (grid %d)", len(blocks), g.Count())
		}
		for _, b := range blocks {
			if b.Level < 1 || b.Level > MaxSpawnLevel {
				t.Errorf("Spawned level %d outside 1..%d", b.Level, MaxSpawnLevel)
			}
		}
	})

	t.Run("stops when full", func(t *testing.T) {
		g := NewGridState(4)
		r := NewRefillSystem(g, NewRandomSource(7))
		blocks, err := r.SpawnStartingBoard(20, DefaultGameConfig().LevelDistribution)
		if err != nil {
			t.Fatalf("Expected board full to be quiet, got %v", err)
		}
		if len(blocks) != 16 {
			t.Errorf("Expected 16 blocks on a 4x4 board, got %d", len(blocks))
		}
	})

	t.Run("same seed same board", func(t *testing.T) {
		g1, g2 := NewGridState(6), NewGridState(6)
		NewRefillSystem(g1, NewRandomSource(99)).SpawnStartingBoard(10, DefaultGameConfig().LevelDistribution)
		NewRefillSystem(g2, NewRandomSource(99)).SpawnStartingBoard(10, DefaultGameConfig().LevelDistribution)
		a, b := g1.AllBlocks(), g2.AllBlocks()
		if len(a) != len(b) {
			t.Fatalf("Block counts differ: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("Block %d differs: %+v vs %+v", i, a[i], b[i])
			}
		}
	})
}
