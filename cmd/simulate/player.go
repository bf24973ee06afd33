package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

// simulationStart is the clock origin of every local game, so a seed and a
// move list reproduce the same game
var simulationStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Move is one merge applied by a player
type Move struct {
	Keep   engine.Coordinate `json:"keep"`
	Remove engine.Coordinate `json:"remove"`
}

// Player drives one game, either in process or through a server
type Player interface {
	State() *engine.GameState
	Hint(ctx context.Context) (*engine.Hint, error)
	Merge(ctx context.Context, keep, remove engine.Coordinate) error
	Summary() *engine.GameSummary
}

// LocalPlayer plays against an in-process engine with a manual clock that
// advances by think before every merge
type LocalPlayer struct {
	engine *engine.GameEngine
	clock  *engine.ManualClock
	think  time.Duration
	state  *engine.GameState
	moves  []Move
}

// NewLocalPlayer starts a seeded game
func NewLocalPlayer(cfg *engine.GameConfig, seed int64, think time.Duration, logger *zap.Logger) (*LocalPlayer, error) {
	clock := engine.NewManualClock(simulationStart)
	eng, err := engine.NewEngine(cfg,
		engine.WithClock(clock),
		engine.WithSeed(seed),
		engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &LocalPlayer{engine: eng, clock: clock, think: think, state: eng.GetState()}, nil
}

func (p *LocalPlayer) State() *engine.GameState { return p.state }

func (p *LocalPlayer) Hint(ctx context.Context) (*engine.Hint, error) {
	hint, ok := p.engine.Hint()
	if !ok {
		return nil, nil
	}
	return hint, nil
}

func (p *LocalPlayer) Merge(ctx context.Context, keep, remove engine.Coordinate) error {
	p.clock.Advance(p.think)
	p.engine.Tick()
	if _, err := p.engine.Merge(keep, remove); err != nil {
		return err
	}
	p.moves = append(p.moves, Move{Keep: keep, Remove: remove})
	p.state = p.engine.GetState()
	return nil
}

func (p *LocalPlayer) Summary() *engine.GameSummary {
	if s := p.engine.Summary(); s != nil {
		return s
	}
	return summaryFromState(p.state)
}

// Moves returns the merges applied so far
func (p *LocalPlayer) Moves() []Move { return p.moves }

// Replay plays moves on a fresh game with the same seed and checks that it
// ends in the same state as p
func (p *LocalPlayer) Replay(ctx context.Context) error {
	replay, err := NewLocalPlayer(p.engine.GetConfig(), p.state.Seed, p.think, zap.NewNop())
	if err != nil {
		return err
	}
	for i, m := range p.moves {
		if err := replay.Merge(ctx, m.Keep, m.Remove); err != nil {
			return fmt.Errorf("replay move %d: %w", i+1, err)
		}
	}
	return compareStates(p.state, replay.State())
}

func compareStates(want, got *engine.GameState) error {
	if want.Score != got.Score {
		return fmt.Errorf("score %d, replay %d", want.Score, got.Score)
	}
	if want.MoveCount != got.MoveCount {
		return fmt.Errorf("moves %d, replay %d", want.MoveCount, got.MoveCount)
	}
	if want.GameOver != got.GameOver {
		return fmt.Errorf("game over %v, replay %v", want.GameOver, got.GameOver)
	}
	for y := range want.Board {
		for x := range want.Board[y] {
			if want.Board[y][x] != got.Board[y][x] {
				return fmt.Errorf("cell (%d,%d) level %d, replay %d", x, y, want.Board[y][x], got.Board[y][x])
			}
		}
	}
	return nil
}

func summaryFromState(s *engine.GameState) *engine.GameSummary {
	return &engine.GameSummary{
		ConfigName:   s.ConfigName,
		Score:        s.Score,
		BestScore:    s.BestScore,
		HighestLevel: s.HighestLevel,
		MoveCount:    s.MoveCount,
		Merges:       s.Merges,
		Explosions:   s.Explosions,
		MaxCombo:     s.MaxCombo,
	}
}
