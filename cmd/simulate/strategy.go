package main

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

// Strategy picks the next merge. ok is false when no merge is left.
type Strategy interface {
	Next(ctx context.Context, p Player) (m Move, ok bool, err error)
}

// NewStrategy returns the strategy registered under name
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "hint":
		return HintStrategy{}, nil
	case "greedy":
		return GreedyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (use hint or greedy)", name)
	}
}

// HintStrategy always plays the first mergeable pair
type HintStrategy struct{}

func (HintStrategy) Next(ctx context.Context, p Player) (Move, bool, error) {
	hint, err := p.Hint(ctx)
	if err != nil || hint == nil {
		return Move{}, false, err
	}
	return Move{Keep: hint.A, Remove: hint.B}, true, nil
}

// GreedyStrategy plays the highest-level pair. The kept block is the one
// with more neighbours at the next level, so chains stay together.
type GreedyStrategy struct{}

func (GreedyStrategy) Next(ctx context.Context, p Player) (Move, bool, error) {
	board := p.State().Board
	best, bestLevel, found := Move{}, 0, false

	for y := range board {
		for x := range board[y] {
			level := board[y][x]
			if level == 0 || level <= bestLevel {
				continue
			}
			for _, d := range []engine.Coordinate{{X: 1, Y: 0}, {X: 0, Y: 1}} {
				nx, ny := x+d.X, y+d.Y
				if ny >= len(board) || nx >= len(board[ny]) || board[ny][nx] != level {
					continue
				}
				a := engine.Coordinate{X: x, Y: y}
				b := engine.Coordinate{X: nx, Y: ny}
				if neighbours(board, b, level+1) > neighbours(board, a, level+1) {
					a, b = b, a
				}
				best, bestLevel, found = Move{Keep: a, Remove: b}, level, true
				break
			}
		}
	}
	return best, found, nil
}

// neighbours counts orthogonal neighbours of pos at level
func neighbours(board [][]int, pos engine.Coordinate, level int) int {
	count := 0
	for _, d := range []engine.Coordinate{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}} {
		x, y := pos.X+d.X, pos.Y+d.Y
		if y >= 0 && y < len(board) && x >= 0 && x < len(board[y]) && board[y][x] == level {
			count++
		}
	}
	return count
}
