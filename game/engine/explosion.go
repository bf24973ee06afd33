package engine

import "go.uber.org/zap"

// ExplosionOutcome summarizes an explosion and its refill
type ExplosionOutcome struct {
	Center   Coordinate   `json:"center"`
	Bonus    int          `json:"bonus"`
	Points   int          `json:"points"`
	Removed  []Coordinate `json:"removed"`
	Reduced  []Block      `json:"reduced"`
	Slots    int          `json:"slots"`
	Spawned  int          `json:"spawned"`
	GameOver bool         `json:"game_over"`
}

// ExplosionSystem clears and weakens the neighborhood of a block that
// reached the explode level, then refills the cleared cells
type ExplosionSystem struct {
	ctx *gameContext
}

func newExplosionSystem(ctx *gameContext) *ExplosionSystem {
	return &ExplosionSystem{ctx: ctx}
}

// Explode runs the explosion pipeline centered on center. Neighbors are
// classified from a snapshot taken before any of them is mutated.
func (x *ExplosionSystem) Explode(center Coordinate) *ExplosionOutcome {
	c := x.ctx
	now := c.clock.Now()
	out := &ExplosionOutcome{Center: center}

	cb, _ := c.grid.Get(center)
	c.emitter.emit(Event{Type: EventExplosion, Position: &center, Level: cb.Level, Radius: c.config.ExplodeRadius})
	c.emitter.play(CueExplode)

	out.Bonus = c.score.AddScore(2 * cb.Value())
	out.Points = out.Bonus
	c.registerCombo(now)

	c.grid.Remove(center)
	c.emitter.at(EventBlockRemoved, center, 0)
	out.Slots = 1

	snapshot := c.grid.BlocksInRadius(center, c.config.ExplodeRadius)
	for _, n := range snapshot {
		if n.Level <= c.config.ExplodeLowLevel {
			c.grid.Remove(n.Position)
			c.emitter.at(EventBlockRemoved, n.Position, 0)
			out.Points += c.score.AddScore(n.Value())
			out.Removed = append(out.Removed, n.Position)
			out.Slots++
			continue
		}
		level := n.Level - c.config.ExplodeLevelDrop
		if level < 1 {
			level = 1
		}
		_ = c.grid.SetLevel(n.Position, level)
		c.emitter.at(EventBlockLevelChanged, n.Position, level)
		out.Reduced = append(out.Reduced, Block{Level: level, Position: n.Position})
	}

	c.explosions++
	c.lastEventAt = now

	for i := 0; i < out.Slots; i++ {
		if !c.spawn() {
			break
		}
		out.Spawned++
	}

	out.GameOver = c.checkGameOver()

	c.logger.Info("explosion",
		zap.Int("x", center.X), zap.Int("y", center.Y),
		zap.Int("bonus", out.Bonus),
		zap.Int("removed", len(out.Removed)),
		zap.Int("reduced", len(out.Reduced)),
		zap.Int("spawned", out.Spawned))
	return out
}
