// Package engine provides the core game logic for the merge-blocks puzzle.
//
// The engine package implements the game mechanics including:
//   - A square grid of leveled blocks (level n is worth 2^n points)
//   - Two-touch selection that merges adjacent equal blocks
//   - Explosions when a merge reaches the configured explode level
//   - Time-windowed combo multipliers with half-up rounding
//   - Weighted random refills and game-over detection
//   - Game state snapshots, restore and move history
//   - Configuration loading (JSON or YAML) and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GridState owns the cells; SelectionController,
// MergeEngine, ExplosionSystem, RefillSystem and ComboScoreEngine are the
// pipeline stages a merge runs through. GameState is the serializable
// snapshot and GameConfig holds the tunable rules.
//
// Collaborators:
//
// Presentation and audio are supplied as Observer and AudioSink values.
// They receive events synchronously while a pipeline runs and must not call
// back into the engine; a re-entrant call returns ErrBusy. Every input call
// also returns the events it produced in its TouchResult, so request/response
// transports do not need an observer at all.
//
// Time and randomness are injected through Clock and RandomSource, which
// makes games reproducible from a seed and lets tests drive the combo window
// with a ManualClock.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("configs", "normal")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Select two adjacent blocks of the same level
//	gameEngine.Touch(engine.Coordinate{X: 0, Y: 0})
//	result, err := gameEngine.Touch(engine.Coordinate{X: 1, Y: 0})
//	state := gameEngine.GetState()
package engine
