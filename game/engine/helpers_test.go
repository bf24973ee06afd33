package engine

import (
	"testing"
	"time"
)

// sequenceRandom returns scripted values (mod n), repeating the last one
// once the script runs out
type sequenceRandom struct {
	values []int
	calls  int
}

func (s *sequenceRandom) Intn(n int) int {
	v := 0
	if len(s.values) > 0 {
		idx := s.calls
		if idx >= len(s.values) {
			idx = len(s.values) - 1
		}
		v = s.values[idx]
	}
	s.calls++
	return v % n
}

// zeroRandom always returns 0: level 1 spawns at the first empty cell
func zeroRandom() *sequenceRandom {
	return &sequenceRandom{}
}

var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func createTestConfig() *GameConfig {
	cfg := DefaultGameConfig()
	cfg.Name = "engine-test"
	cfg.Description = "Configuration for engine tests"
	cfg.StartingBlocks = 0
	return cfg
}

// newTestEngine builds an empty-board engine with scripted randomness and a manual clock
func newTestEngine(t *testing.T, cfg *GameConfig, opts ...Option) (*GameEngine, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testEpoch)
	all := append([]Option{WithClock(clock), WithRandom(zeroRandom())}, opts...)
	e, err := NewEngine(cfg, all...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e, clock
}

// place puts blocks on the engine's grid, failing the test on error
func place(t *testing.T, e *GameEngine, blocks ...BlockState) {
	t.Helper()
	for _, b := range blocks {
		if err := e.ctx.grid.Set(Coordinate{X: b.X, Y: b.Y}, b.Level); err != nil {
			t.Fatalf("place (%d,%d) level %d: %v", b.X, b.Y, b.Level, err)
		}
		e.ctx.noteLevel(b.Level)
	}
}

func levelAt(e *GameEngine, x, y int) int {
	b, ok := e.ctx.grid.Get(Coordinate{X: x, Y: y})
	if !ok {
		return 0
	}
	return b.Level
}

// recorder collects observer events and audio cues
type recorder struct {
	events []Event
	cues   []Cue
}

func (r *recorder) Notify(e Event) { r.events = append(r.events, e) }
func (r *recorder) Play(c Cue)     { r.cues = append(r.cues, c) }

func (r *recorder) count(t EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
