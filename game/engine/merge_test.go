package engine

import (
	"errors"
	"testing"
	"time"
)

func TestMerge_SimpleWithGameOver(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, createTestConfig(), WithObserver(rec), WithAudio(rec))
	place(t, e,
		BlockState{Level: 1, X: 0, Y: 0},
		BlockState{Level: 1, X: 0, Y: 1},
	)

	res, err := e.Merge(Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 1})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if levelAt(e, 0, 0) != 2 {
		t.Errorf("Expected level 2 at (0,0), got %d", levelAt(e, 0, 0))
	}
	if levelAt(e, 0, 1) != 0 {
		t.Error("Expected removed cell to be empty")
	}
	// refill lands on the first empty cell with the scripted source
	if levelAt(e, 1, 0) != 1 {
		t.Errorf("Expected spawned level 1 at (1,0), got %d", levelAt(e, 1, 0))
	}
	if e.GetScore() != 4 {
		t.Errorf("Expected score 4, got %d", e.GetScore())
	}
	if res.Merge.Points != 4 || res.Merge.Combo != 0 || res.Merge.Spawned != 1 {
		t.Errorf("Unexpected outcome %+v", res.Merge)
	}

	if !e.IsGameOver() || !res.Merge.GameOver {
		t.Fatal("Expected game over: no adjacent equal pair remains")
	}
	if res.Summary == nil || res.Summary.Score != 4 || res.Summary.MoveCount != 1 {
		t.Errorf("Unexpected summary %+v", res.Summary)
	}
	if rec.count(EventGameOver) != 1 {
		t.Errorf("Expected one game_over event, got %d", rec.count(EventGameOver))
	}
	if len(rec.cues) != 2 || rec.cues[0] != CueMerge || rec.cues[1] != CueGameOver {
		t.Errorf("Expected cues [merge game_over], got %v", rec.cues)
	}

	if _, err := e.Touch(Coordinate{X: 0, Y: 0}); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver after game over, got %v", err)
	}
}

func TestMerge_EventOrder(t *testing.T) {
	e, _ := newTestEngine(t, createTestConfig())
	place(t, e,
		BlockState{Level: 2, X: 0, Y: 0},
		BlockState{Level: 1, X: 1, Y: 0},
		BlockState{Level: 1, X: 2, Y: 0},
	)

	res, err := e.Merge(Coordinate{X: 1, Y: 0}, Coordinate{X: 2, Y: 0})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	want := []EventType{EventBlockRemoved, EventBlockLevelChanged, EventChainHint, EventBlockSpawned}
	if len(res.Events) != len(want) {
		t.Fatalf("Expected %d events, got %+v", len(want), res.Events)
	}
	for i, typ := range want {
		if res.Events[i].Type != typ {
			t.Errorf("Event %d: expected %s, got %s", i, typ, res.Events[i].Type)
		}
	}
	if hint := res.Events[2]; *hint.Position != (Coordinate{X: 0, Y: 0}) || hint.Level != 2 {
		t.Errorf("Expected chain hint at (0,0) level 2, got %+v", hint)
	}
	if res.Merge.GameOver {
		t.Error("Chain hint pair should keep the game alive")
	}
}

func TestMerge_InvalidDoesNotMutate(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, createTestConfig(), WithObserver(rec))
	place(t, e,
		BlockState{Level: 1, X: 0, Y: 0},
		BlockState{Level: 2, X: 1, Y: 0},
		BlockState{Level: 1, X: 2, Y: 0},
	)
	before := e.GetState()

	cases := []struct {
		name         string
		keep, remove Coordinate
		want         error
	}{
		{"different levels", Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 0}, ErrInvalidMerge},
		{"not adjacent", Coordinate{X: 0, Y: 0}, Coordinate{X: 2, Y: 0}, ErrInvalidMerge},
		{"empty cell", Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 1}, ErrInvalidMerge},
		{"same cell", Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 0}, ErrInvalidMerge},
		{"out of bounds", Coordinate{X: 0, Y: 0}, Coordinate{X: -1, Y: 0}, ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Merge(tc.keep, tc.remove); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	after := e.GetState()
	if after.Score != before.Score || after.MoveCount != before.MoveCount || len(after.Blocks) != len(before.Blocks) {
		t.Errorf("Invalid merges mutated state: before %+v after %+v", before, after)
	}
	for i := range before.Blocks {
		if before.Blocks[i] != after.Blocks[i] {
			t.Errorf("Block %d changed: %+v -> %+v", i, before.Blocks[i], after.Blocks[i])
		}
	}
	if len(rec.events) != 0 {
		t.Errorf("Expected no events, got %+v", rec.events)
	}
}

func TestMerge_BlockConservation(t *testing.T) {
	e, _ := newTestEngine(t, createTestConfig())
	place(t, e,
		BlockState{Level: 3, X: 2, Y: 2},
		BlockState{Level: 3, X: 2, Y: 3},
		BlockState{Level: 1, X: 4, Y: 4},
		BlockState{Level: 1, X: 4, Y: 3},
	)
	before := e.Grid().Count()

	if _, err := e.Merge(Coordinate{X: 2, Y: 2}, Coordinate{X: 2, Y: 3}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	// one removed by the merge, one added by refill
	if got := e.Grid().Count(); got != before {
		t.Errorf("Expected %d blocks after merge+refill, got %d", before, got)
	}
}

func TestMerge_ComboWithinWindow(t *testing.T) {
	e, clock := newTestEngine(t, createTestConfig())
	place(t, e,
		BlockState{Level: 1, X: 0, Y: 0},
		BlockState{Level: 1, X: 1, Y: 0},
		BlockState{Level: 2, X: 0, Y: 2},
		BlockState{Level: 2, X: 1, Y: 2},
	)

	first, err := e.Merge(Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 0})
	if err != nil {
		t.Fatalf("First merge failed: %v", err)
	}
	if first.Merge.Points != 4 || first.Merge.Combo != 0 {
		t.Errorf("First merge: expected 4 points combo 0, got %+v", first.Merge)
	}

	clock.Advance(time.Second)
	second, err := e.Merge(Coordinate{X: 0, Y: 2}, Coordinate{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("Second merge failed: %v", err)
	}
	if second.Merge.Combo != 1 {
		t.Errorf("Expected combo 1, got %d", second.Merge.Combo)
	}
	if second.Merge.Points != 12 {
		t.Errorf("Expected 8 x 1.5 = 12 points, got %d", second.Merge.Points)
	}
	if e.GetScore() != 16 {
		t.Errorf("Expected total 16, got %d", e.GetScore())
	}
	if len(second.Cues) != 2 || second.Cues[0] != CueCombo || second.Cues[1] != CueMerge {
		t.Errorf("Expected cues [combo merge], got %v", second.Cues)
	}
}

func TestMerge_ComboWindowBoundary(t *testing.T) {
	setup := func(t *testing.T) (*GameEngine, *ManualClock) {
		cfg := createTestConfig()
		cfg.GridSize = 6
		e, clock := newTestEngine(t, cfg)
		place(t, e,
			BlockState{Level: 2, X: 0, Y: 5},
			BlockState{Level: 2, X: 1, Y: 5},
			BlockState{Level: 2, X: 3, Y: 5},
			BlockState{Level: 2, X: 4, Y: 5},
			BlockState{Level: 2, X: 0, Y: 3},
			BlockState{Level: 2, X: 1, Y: 3},
		)
		if _, err := e.Merge(Coordinate{X: 0, Y: 5}, Coordinate{X: 1, Y: 5}); err != nil {
			t.Fatalf("merge 1: %v", err)
		}
		clock.Advance(time.Second)
		if _, err := e.Merge(Coordinate{X: 3, Y: 5}, Coordinate{X: 4, Y: 5}); err != nil {
			t.Fatalf("merge 2: %v", err)
		}
		return e, clock
	}

	t.Run("just inside window extends chain", func(t *testing.T) {
		e, clock := setup(t)
		clock.Advance(3*time.Second - time.Millisecond)
		res, err := e.Merge(Coordinate{X: 0, Y: 3}, Coordinate{X: 1, Y: 3})
		if err != nil {
			t.Fatalf("merge 3: %v", err)
		}
		if res.Merge.Combo != 2 || res.Merge.Points != 16 {
			t.Errorf("Expected combo 2 and 16 points, got %+v", res.Merge)
		}
	})

	t.Run("exactly at window resets chain", func(t *testing.T) {
		e, clock := setup(t)
		clock.Advance(3 * time.Second)
		res, err := e.Merge(Coordinate{X: 0, Y: 3}, Coordinate{X: 1, Y: 3})
		if err != nil {
			t.Fatalf("merge 3: %v", err)
		}
		if res.Merge.Combo != 0 || res.Merge.Points != 8 {
			t.Errorf("Expected combo 0 and 8 points, got %+v", res.Merge)
		}
	})

	t.Run("after window resets chain", func(t *testing.T) {
		e, clock := setup(t)
		clock.Advance(3*time.Second + time.Millisecond)
		res, err := e.Merge(Coordinate{X: 0, Y: 3}, Coordinate{X: 1, Y: 3})
		if err != nil {
			t.Fatalf("merge 3: %v", err)
		}
		if res.Merge.Combo != 0 || res.Merge.Points != 8 {
			t.Errorf("Expected combo 0 and 8 points, got %+v", res.Merge)
		}
		if e.GetState().MaxCombo != 1 {
			t.Errorf("Expected max combo 1, got %d", e.GetState().MaxCombo)
		}
	})
}

func TestMerge_Milestone(t *testing.T) {
	rec := &recorder{}
	e, _ := newTestEngine(t, createTestConfig(), WithObserver(rec))
	place(t, e,
		BlockState{Level: 7, X: 0, Y: 0},
		BlockState{Level: 7, X: 1, Y: 0},
		BlockState{Level: 7, X: 0, Y: 3},
		BlockState{Level: 7, X: 1, Y: 3},
	)

	if _, err := e.Merge(Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 0}); err != nil {
		t.Fatalf("merge 1: %v", err)
	}
	if _, err := e.Merge(Coordinate{X: 0, Y: 3}, Coordinate{X: 1, Y: 3}); err != nil {
		t.Fatalf("merge 2: %v", err)
	}

	if rec.count(EventMilestone) != 1 {
		t.Errorf("Expected milestone once per game, got %d", rec.count(EventMilestone))
	}
	if s := e.GetState(); s.HighestLevel != 8 || s.HighestValue != 256 {
		t.Errorf("Expected highest level 8 (256), got %d (%d)", s.HighestLevel, s.HighestValue)
	}
}

func TestMerge_History(t *testing.T) {
	e, clock := newTestEngine(t, createTestConfig())
	place(t, e,
		BlockState{Level: 1, X: 0, Y: 0},
		BlockState{Level: 1, X: 1, Y: 0},
		BlockState{Level: 2, X: 0, Y: 2},
		BlockState{Level: 2, X: 1, Y: 2},
	)

	if e.GetLastMove() != nil {
		t.Error("Expected no last move on a fresh game")
	}

	e.Merge(Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 0})
	clock.Advance(time.Second)
	e.Merge(Coordinate{X: 0, Y: 2}, Coordinate{X: 1, Y: 2})

	history := e.GetMoveHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	last := e.GetLastMove()
	if last.MoveNumber != 2 || last.Points != 12 || last.Combo != 1 || last.LevelAfter != 3 {
		t.Errorf("Unexpected last move %+v", last)
	}
	if last.Timestamp != testEpoch.Add(time.Second).Unix() {
		t.Errorf("Expected timestamp from engine clock, got %d", last.Timestamp)
	}
}
