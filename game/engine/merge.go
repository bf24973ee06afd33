package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// gameContext bundles the state shared by the pipeline systems
type gameContext struct {
	config  *GameConfig
	grid    *GridState
	score   *ComboScoreEngine
	refill  *RefillSystem
	emitter *emitter
	clock   Clock
	logger  *zap.Logger

	moveCount    int
	highestLevel int
	merges       int
	explosions   int
	lastEventAt  time.Time
	milestoneHit bool
	gameOver     bool
	summary      *GameSummary
}

// noteLevel tracks the highest level reached
func (c *gameContext) noteLevel(level int) {
	if level > c.highestLevel {
		c.highestLevel = level
	}
}

// spawn places one block and notifies; BoardFull is reported, not logged
func (c *gameContext) spawn() bool {
	b, err := c.refill.SpawnOne(c.config.LevelDistribution)
	if err != nil {
		if !errors.Is(err, ErrBoardFull) {
			c.logger.Error("spawn failed", zap.Error(err))
		}
		return false
	}
	c.noteLevel(b.Level)
	c.emitter.at(EventBlockSpawned, b.Position, b.Level)
	return true
}

// registerCombo extends the combo chain and notifies
func (c *gameContext) registerCombo(now time.Time) {
	count := c.score.RegisterComboEvent(now)
	c.emitter.emit(Event{Type: EventCombo, Count: count})
	c.emitter.play(CueCombo)
}

// checkGameOver ends the game when no adjacent equal pair remains
func (c *gameContext) checkGameOver() bool {
	if HasLegalMove(c.grid) {
		return false
	}
	c.gameOver = true
	c.summary = c.buildSummary()
	score := c.score.Score()
	c.emitter.emit(Event{Type: EventGameOver, Summary: c.summary})
	c.emitter.play(CueGameOver)
	c.logger.Info("game over",
		zap.Int("score", score.Current),
		zap.Int("best", score.Best),
		zap.Int("moves", c.moveCount),
		zap.Int("highest_level", c.highestLevel))
	return true
}

func (c *gameContext) buildSummary() *GameSummary {
	score := c.score.Score()
	return &GameSummary{
		ConfigName:   c.config.Name,
		Score:        score.Current,
		BestScore:    score.Best,
		HighestLevel: c.highestLevel,
		MoveCount:    c.moveCount,
		Merges:       c.merges,
		Explosions:   c.explosions,
		MaxCombo:     c.score.MaxCombo(),
	}
}

// MergeOutcome summarizes a completed merge pipeline
type MergeOutcome struct {
	Keep       Coordinate `json:"keep"`
	Remove     Coordinate `json:"remove"`
	LevelAfter int        `json:"level_after"`
	Points     int        `json:"points"`
	Combo      int        `json:"combo"`
	Exploded   bool       `json:"exploded"`
	Spawned    int        `json:"spawned"`
	GameOver   bool       `json:"game_over"`
}

// MergeEngine validates and executes merges
type MergeEngine struct {
	ctx       *gameContext
	explosion *ExplosionSystem
}

func newMergeEngine(ctx *gameContext, explosion *ExplosionSystem) *MergeEngine {
	return &MergeEngine{ctx: ctx, explosion: explosion}
}

// Execute merges the block at remove into the block at keep. An invalid
// pair returns ErrInvalidMerge before any mutation.
func (m *MergeEngine) Execute(keep, remove Coordinate) (*MergeOutcome, error) {
	c := m.ctx
	if !CanMerge(c.grid, keep, remove) {
		c.logger.Debug("merge rejected",
			zap.Int("keep_x", keep.X), zap.Int("keep_y", keep.Y),
			zap.Int("remove_x", remove.X), zap.Int("remove_y", remove.Y))
		return nil, ErrInvalidMerge
	}

	now := c.clock.Now()
	if !c.lastEventAt.IsZero() && now.Sub(c.lastEventAt) < c.config.ComboWindowDuration() {
		c.registerCombo(now)
	} else {
		c.score.ResetCombo()
	}

	kept, _ := c.grid.Get(keep)
	newLevel := kept.Level + 1

	c.grid.Remove(remove)
	c.emitter.at(EventBlockRemoved, remove, 0)
	// keep is occupied and newLevel >= 2, so SetLevel cannot fail here
	_ = c.grid.SetLevel(keep, newLevel)
	c.emitter.at(EventBlockLevelChanged, keep, newLevel)
	c.emitter.play(CueMerge)

	out := &MergeOutcome{Keep: keep, Remove: remove, LevelAfter: newLevel}
	out.Points = c.score.AddScore(BlockValue(newLevel))
	out.Combo = c.score.Combo().Count

	c.lastEventAt = now
	c.merges++
	c.moveCount++
	c.noteLevel(newLevel)

	if ms := c.config.MilestoneLevel; ms > 0 && newLevel >= ms && !c.milestoneHit {
		c.milestoneHit = true
		c.emitter.at(EventMilestone, keep, newLevel)
	}

	if newLevel >= c.config.ExplodeLevel {
		ex := m.explosion.Explode(keep)
		out.Exploded = true
		out.Points += ex.Points
		out.Combo = c.score.Combo().Count
		out.Spawned = ex.Spawned
		out.GameOver = ex.GameOver
		return out, nil
	}

	for _, n := range c.grid.Neighbors(keep) {
		if n.Level == newLevel {
			c.emitter.at(EventChainHint, n.Position, n.Level)
		}
	}

	if c.spawn() {
		out.Spawned = 1
	}
	out.GameOver = c.checkGameOver()

	c.logger.Debug("merge",
		zap.Int("x", keep.X), zap.Int("y", keep.Y),
		zap.Int("level", newLevel),
		zap.Int("points", out.Points),
		zap.Int("combo", out.Combo))
	return out, nil
}
