package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Restore(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetScore() int
	GetBestScore() int
	GetCombo() ComboState

	// Input
	Touch(pos Coordinate) (*TouchResult, error)
	Merge(keep, remove Coordinate) (*TouchResult, error)
	Tick() bool
	Hint() (*Hint, bool)

	// Busy guard
	HoldInput()
	ReleaseInput()
	IsBusy() bool

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// TouchResult is returned from every input call. Events and Cues hold
// everything emitted while handling that input.
type TouchResult struct {
	Action  SelectionAction `json:"action"`
	Merge   *MergeOutcome   `json:"merge,omitempty"`
	Events  []Event         `json:"events"`
	Cues    []Cue           `json:"cues,omitempty"`
	Summary *GameSummary    `json:"summary,omitempty"`
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *GameEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the time source used for combo windows
func WithClock(clock Clock) Option {
	return func(e *GameEngine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRandom sets the random source for spawns. It is kept across Reset.
func WithRandom(rng RandomSource) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithSeed seeds a deterministic random source
func WithSeed(seed int64) Option {
	return func(e *GameEngine) {
		e.seed = seed
		e.rng = nil
	}
}

// WithObserver adds a presentation collaborator
func WithObserver(o Observer) Option {
	return func(e *GameEngine) {
		e.observers = append(e.observers, o)
	}
}

// WithAudio adds an audio collaborator
func WithAudio(a AudioSink) Option {
	return func(e *GameEngine) {
		e.audio = append(e.audio, a)
	}
}

// WithBestScore supplies the persisted best score
func WithBestScore(best int) Option {
	return func(e *GameEngine) {
		e.best = best
	}
}

// GameEngine is one game session: it owns the grid and orchestrates
// selection, merge, explosion, refill, scoring and game-over detection
type GameEngine struct {
	config    *GameConfig
	logger    *zap.Logger
	clock     Clock
	rng       RandomSource
	seed      int64
	fixedRNG  bool
	best      int
	observers []Observer
	audio     []AudioSink

	ctx       *gameContext
	selection *SelectionController
	merger    *MergeEngine
	emitter   *emitter

	history []MoveHistoryEntry
	total   int

	busyMu sync.Mutex
	busy   bool
	holds  int
}

// NewEngine creates a new game with the starting board already spawned
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:  config,
		logger:  zap.NewNop(),
		clock:   SystemClock{},
		seed:    time.Now().UnixNano(),
		history: []MoveHistoryEntry{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.fixedRNG = e.rng != nil
	if !e.fixedRNG {
		e.rng = NewRandomSource(e.seed)
	}

	e.emitter = &emitter{observers: e.observers, audio: e.audio, clock: e.clock}
	e.newGame(e.best)
	e.emitter.drain()
	return e, nil
}

// NewEngineWithDefaults creates a new game using DefaultGameConfig
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return e
}

// newGame builds a fresh board and systems; best carries over
func (e *GameEngine) newGame(best int) {
	grid := NewGridState(e.config.GridSize)
	e.ctx = &gameContext{
		config:  e.config,
		grid:    grid,
		score:   NewComboScoreEngine(e.config.ComboWindowDuration(), e.config.ComboMultiplierStep, best),
		refill:  NewRefillSystem(grid, e.rng),
		emitter: e.emitter,
		clock:   e.clock,
		logger:  e.logger,
	}
	e.selection = newSelectionController(grid, e.emitter)
	e.merger = newMergeEngine(e.ctx, newExplosionSystem(e.ctx))

	spawned := e.dealStartingBoard()
	for _, b := range spawned {
		e.ctx.noteLevel(b.Level)
		e.emitter.at(EventBlockSpawned, b.Position, b.Level)
	}
	// an empty starting board is left for the caller to fill
	if len(spawned) > 0 {
		e.ctx.checkGameOver()
	}
}

// dealStartingBoard spawns the starting blocks, dealing again up to
// maxStartingDeals times while the board has no adjacent equal pair
func (e *GameEngine) dealStartingBoard() []Block {
	var spawned []Block
	for deal := 1; ; deal++ {
		var err error
		spawned, err = e.ctx.refill.SpawnStartingBoard(e.config.StartingBlocks, e.config.LevelDistribution)
		if err != nil {
			e.logger.Error("starting board spawn failed", zap.Error(err))
		}
		if len(spawned) < 2 || HasLegalMove(e.ctx.grid) || deal == maxStartingDeals {
			return spawned
		}
		for _, b := range spawned {
			e.ctx.grid.Remove(b.Position)
		}
		e.logger.Debug("starting board has no legal move, dealing again", zap.Int("deal", deal))
	}
}

// Touch feeds a grid coordinate from the input collaborator into the
// selection state machine, running a merge when the touch completes a pair
func (e *GameEngine) Touch(pos Coordinate) (*TouchResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if !e.ctx.grid.InBounds(pos) {
		e.logger.Warn("touch out of bounds", zap.Int("x", pos.X), zap.Int("y", pos.Y))
		return nil, fmt.Errorf("touch (%d,%d): %w", pos.X, pos.Y, ErrOutOfBounds)
	}

	sel := e.selection.Touch(pos)
	if sel.Action != SelectionMerge {
		return e.result(sel.Action, nil), nil
	}
	out, err := e.runMerge(sel.Keep, sel.Remove)
	if err != nil {
		e.emitter.drain()
		return nil, err
	}
	return e.result(SelectionMerge, out), nil
}

// Merge runs the merge pipeline directly, bypassing selection. Any armed
// selection is cleared.
func (e *GameEngine) Merge(keep, remove Coordinate) (*TouchResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if !e.ctx.grid.InBounds(keep) || !e.ctx.grid.InBounds(remove) {
		e.logger.Warn("merge out of bounds",
			zap.Int("keep_x", keep.X), zap.Int("keep_y", keep.Y),
			zap.Int("remove_x", remove.X), zap.Int("remove_y", remove.Y))
		return nil, ErrOutOfBounds
	}
	if !CanMerge(e.ctx.grid, keep, remove) {
		return nil, ErrInvalidMerge
	}

	e.selection.Clear()
	out, err := e.runMerge(keep, remove)
	if err != nil {
		e.emitter.drain()
		return nil, err
	}
	return e.result(SelectionMerge, out), nil
}

func (e *GameEngine) runMerge(keep, remove Coordinate) (*MergeOutcome, error) {
	out, err := e.merger.Execute(keep, remove)
	if err != nil {
		return nil, err
	}
	e.addHistory(out)
	return out, nil
}

func (e *GameEngine) result(action SelectionAction, out *MergeOutcome) *TouchResult {
	events, cues := e.emitter.drain()
	r := &TouchResult{Action: action, Merge: out, Events: events, Cues: cues}
	if out != nil && out.GameOver {
		r.Summary = e.ctx.summary
	}
	return r
}

// Tick advances time-based systems using the engine clock. It reports
// whether a combo chain expired.
func (e *GameEngine) Tick() bool {
	if !e.ctx.score.Tick(e.clock.Now()) {
		return false
	}
	e.emitter.emit(Event{Type: EventComboEnded})
	e.emitter.drain()
	return true
}

// Hint returns the first mergeable pair, if any
func (e *GameEngine) Hint() (*Hint, bool) {
	a, b, ok := FindLegalMove(e.ctx.grid)
	if !ok {
		return nil, false
	}
	blk, _ := e.ctx.grid.Get(a)
	return &Hint{A: a, B: b, Level: blk.Level}, true
}

// begin acquires the busy guard for one pipeline
func (e *GameEngine) begin() error {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()
	if e.busy || e.holds > 0 {
		return ErrBusy
	}
	if e.ctx.gameOver {
		return ErrGameOver
	}
	e.busy = true
	return nil
}

func (e *GameEngine) end() {
	e.busyMu.Lock()
	e.busy = false
	e.busyMu.Unlock()
}

// HoldInput lets a presentation layer keep input rejected while it
// animates the last pipeline. Calls nest.
func (e *GameEngine) HoldInput() {
	e.busyMu.Lock()
	e.holds++
	e.busyMu.Unlock()
}

// ReleaseInput undoes one HoldInput
func (e *GameEngine) ReleaseInput() {
	e.busyMu.Lock()
	if e.holds > 0 {
		e.holds--
	}
	e.busyMu.Unlock()
}

// IsBusy reports whether input is currently rejected
func (e *GameEngine) IsBusy() bool {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()
	return e.busy || e.holds > 0
}

// Grid returns a copy of the board
func (e *GameEngine) Grid() *GridState {
	return e.ctx.grid.Clone()
}

// Selected returns the armed coordinate, if any
func (e *GameEngine) Selected() (Coordinate, bool) {
	return e.selection.Armed()
}

// GetState returns a snapshot of the game
func (e *GameEngine) GetState() *GameState {
	score := e.ctx.score.Score()
	state := &GameState{
		ConfigName:   e.config.Name,
		GridSize:     e.config.GridSize,
		Board:        e.ctx.grid.Levels(),
		Score:        score.Current,
		BestScore:    score.Best,
		ComboCount:   e.ctx.score.Combo().Count,
		MoveCount:    e.ctx.moveCount,
		HighestLevel: e.ctx.highestLevel,
		HighestValue: BlockValue(e.ctx.highestLevel),
		Merges:       e.ctx.merges,
		Explosions:   e.ctx.explosions,
		MaxCombo:     e.ctx.score.MaxCombo(),
		Seed:         e.seed,
		GameOver:     e.ctx.gameOver,
		MoveHistory:  append([]MoveHistoryEntry(nil), e.history...),
		TotalMoves:   e.total,
	}
	for _, b := range e.ctx.grid.AllBlocks() {
		state.Blocks = append(state.Blocks, BlockState{Level: b.Level, X: b.Position.X, Y: b.Position.Y})
	}
	if pos, ok := e.selection.Armed(); ok {
		state.Selected = &pos
	}
	switch {
	case state.GameOver:
		state.Message = fmt.Sprintf("Game over! Final score %d", state.Score)
	case state.ComboCount > 0:
		state.Message = fmt.Sprintf("Combo x%d", state.ComboCount)
	default:
		state.Message = "Select two adjacent blocks of the same level"
	}
	return state
}

// Restore replaces the current game with a persisted snapshot. The random
// source is re-seeded from Seed+MoveCount so resumed games stay
// reproducible; a pending combo keeps its count but loses its deadline.
// A finished game gets its summary back.
func (e *GameEngine) Restore(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.GridSize != 0 && state.GridSize != e.config.GridSize {
		return fmt.Errorf("state grid size %d does not match config grid size %d", state.GridSize, e.config.GridSize)
	}

	grid := NewGridState(e.config.GridSize)
	for _, b := range state.Blocks {
		if err := grid.Set(Coordinate{X: b.X, Y: b.Y}, b.Level); err != nil {
			return fmt.Errorf("restore block: %w", err)
		}
	}

	e.seed = state.Seed
	e.rng = NewRandomSource(state.Seed + int64(state.MoveCount))
	score := NewComboScoreEngine(e.config.ComboWindowDuration(), e.config.ComboMultiplierStep, state.BestScore)
	score.Restore(state.Score, state.BestScore, state.ComboCount, state.MaxCombo)

	e.ctx = &gameContext{
		config:       e.config,
		grid:         grid,
		score:        score,
		refill:       NewRefillSystem(grid, e.rng),
		emitter:      e.emitter,
		clock:        e.clock,
		logger:       e.logger,
		moveCount:    state.MoveCount,
		highestLevel: state.HighestLevel,
		merges:       state.Merges,
		explosions:   state.Explosions,
		milestoneHit: e.config.MilestoneLevel > 0 && state.HighestLevel >= e.config.MilestoneLevel,
		gameOver:     state.GameOver,
	}
	if state.GameOver {
		e.ctx.summary = e.ctx.buildSummary()
	}
	e.selection = newSelectionController(grid, e.emitter)
	e.merger = newMergeEngine(e.ctx, newExplosionSystem(e.ctx))
	e.history = append([]MoveHistoryEntry{}, state.MoveHistory...)
	e.total = state.TotalMoves
	if e.total < len(e.history) {
		e.total = len(e.history)
	}
	e.logger.Debug("game restored",
		zap.Int64("seed", state.Seed),
		zap.Int("moves", state.MoveCount),
		zap.Int("score", state.Score),
		zap.Bool("game_over", state.GameOver))
	return nil
}

// Reset starts a new game on the same engine. The best score and the
// cumulative move history are kept.
func (e *GameEngine) Reset() *GameState {
	best := e.ctx.score.Score().Best
	e.seed++
	if !e.fixedRNG {
		e.rng = NewRandomSource(e.seed)
	}
	e.newGame(best)
	e.emitter.drain()
	return e.GetState()
}

// SetBestScore raises the best score, e.g. after the persistence
// collaborator reports a higher stored value
func (e *GameEngine) SetBestScore(best int) {
	s := e.ctx.score.Score()
	if best > s.Best {
		e.ctx.score.Restore(s.Current, best, e.ctx.score.Combo().Count, e.ctx.score.MaxCombo())
	}
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.ctx.gameOver
}

// Summary returns the game-over summary, or nil while the game runs
func (e *GameEngine) Summary() *GameSummary {
	return e.ctx.summary
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.ctx.score.Score().Current
}

// GetBestScore returns the best score
func (e *GameEngine) GetBestScore() int {
	return e.ctx.score.Score().Best
}

// GetCombo returns the combo state
func (e *GameEngine) GetCombo() ComboState {
	return e.ctx.score.Combo()
}

// GetConfig returns the game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the cumulative move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last move, or nil
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) addHistory(out *MergeOutcome) {
	e.total++
	e.history = append(e.history, MoveHistoryEntry{
		Action:     "merge",
		Keep:       out.Keep,
		Remove:     out.Remove,
		LevelAfter: out.LevelAfter,
		Points:     out.Points,
		Combo:      out.Combo,
		Exploded:   out.Exploded,
		Spawned:    out.Spawned,
		Timestamp:  e.clock.Now().Unix(),
		MoveNumber: e.total,
	})
	if len(e.history) > MaxHistoryEntries {
		e.history = e.history[len(e.history)-MaxHistoryEntries:]
	}
}
