package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComboState tracks the running combo chain. A zero Deadline means no
// chain is active.
type ComboState struct {
	Count    int       `json:"count"`
	Deadline time.Time `json:"deadline"`
}

// ScoreState holds the current and best score; Best >= Current always
type ScoreState struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// ComboScoreEngine accumulates score and applies the time-windowed combo
// multiplier
type ComboScoreEngine struct {
	score    ScoreState
	combo    ComboState
	window   time.Duration
	step     decimal.Decimal
	maxCombo int
}

// NewComboScoreEngine creates a score engine seeded with a persisted best score
func NewComboScoreEngine(window time.Duration, step float64, best int) *ComboScoreEngine {
	if best < 0 {
		best = 0
	}
	return &ComboScoreEngine{
		score:  ScoreState{Best: best},
		window: window,
		step:   decimal.NewFromFloat(step),
	}
}

// Multiplier returns 1 + count*step
func (s *ComboScoreEngine) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(s.step.Mul(decimal.NewFromInt(int64(s.combo.Count))))
}

// AddScore applies the combo multiplier to base, rounds half up, and adds it
// to the current score. It returns the points actually awarded.
func (s *ComboScoreEngine) AddScore(base int) int {
	final := int(decimal.NewFromInt(int64(base)).Mul(s.Multiplier()).Round(0).IntPart())
	s.score.Current += final
	if s.score.Current > s.score.Best {
		s.score.Best = s.score.Current
	}
	return final
}

// RegisterComboEvent extends the chain and moves the deadline to now+window
func (s *ComboScoreEngine) RegisterComboEvent(now time.Time) int {
	s.combo.Count++
	s.combo.Deadline = now.Add(s.window)
	if s.combo.Count > s.maxCombo {
		s.maxCombo = s.combo.Count
	}
	return s.combo.Count
}

// Tick resets the chain once now is past the deadline. It reports whether
// a chain ended.
func (s *ComboScoreEngine) Tick(now time.Time) bool {
	if s.combo.Deadline.IsZero() || !now.After(s.combo.Deadline) {
		return false
	}
	ended := s.combo.Count > 0
	s.ResetCombo()
	return ended
}

// ResetCombo drops the chain without touching the score
func (s *ComboScoreEngine) ResetCombo() {
	s.combo = ComboState{}
}

// ResetForNewGame zeroes the current score and combo; Best persists
func (s *ComboScoreEngine) ResetForNewGame() {
	s.score.Current = 0
	s.combo = ComboState{}
	s.maxCombo = 0
}

// Restore loads persisted values. The deadline is not persisted, so a
// restored chain has none and survives until the next merge decides.
func (s *ComboScoreEngine) Restore(current, best, comboCount, maxCombo int) {
	if best < current {
		best = current
	}
	s.score = ScoreState{Current: current, Best: best}
	s.combo = ComboState{Count: comboCount}
	s.maxCombo = maxCombo
}

// Score returns the score state
func (s *ComboScoreEngine) Score() ScoreState {
	return s.score
}

// Combo returns the combo state
func (s *ComboScoreEngine) Combo() ComboState {
	return s.combo
}

// MaxCombo returns the longest chain seen this game
func (s *ComboScoreEngine) MaxCombo() int {
	return s.maxCombo
}
