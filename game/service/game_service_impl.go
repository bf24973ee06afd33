package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/records"
)

// ErrConfigNotFound is returned when a requested configuration does not exist
var ErrConfigNotFound = errors.New("configuration not found")

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineOptions appends options passed to every new engine, e.g. a
// fake clock in tests
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *gameServiceImpl) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithNow overrides the wall clock used for timestamps on events and records
func WithNow(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions   SessionManager
	configs    ConfigManager
	store      records.Store
	logger     *zap.Logger
	engineOpts []engine.Option
	now        func() time.Time
	mu         sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return engine.DefaultConfigName
	}
	return configName
}

// NewGameService creates a new game service instance. A nil store keeps
// finished games in memory.
func NewGameService(sessions SessionManager, configs ConfigManager, store records.Store, opts ...Option) GameService {
	if store == nil {
		store = records.NewMemoryStore()
	}
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		store:    store,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session. The best score for the
// configuration is read from the record store; seed is optional.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed *int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, err)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	best, err := s.store.BestScore(ctx, config.Name)
	if err != nil {
		s.logger.Warn("best score lookup failed", zap.String("config", config.Name), zap.Error(err))
		best = 0
	}

	opts := append([]engine.Option{}, s.engineOpts...)
	opts = append(opts, engine.WithLogger(s.logger), engine.WithBestScore(best))
	if seed != nil {
		opts = append(opts, engine.WithSeed(*seed))
	}

	session, err := s.sessions.Create("", config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// a starting board without a legal move is a finished game
	var recordID string
	if summary := session.Engine.Summary(); summary != nil {
		recordID = s.recordGame(ctx, session.ID, summary)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}
	s.logger.Info("session created",
		zap.String("session", session.ID),
		zap.String("config", configID),
		zap.Int("best_score", best))

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
		RecordID:       recordID,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Touch feeds one grid coordinate into the session's selection
func (s *gameServiceImpl) Touch(ctx context.Context, sessionID string, pos engine.Coordinate) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(e *engine.GameEngine) (*engine.TouchResult, error) {
		return e.Touch(pos)
	})
}

// Merge merges remove into keep directly
func (s *gameServiceImpl) Merge(ctx context.Context, sessionID string, keep, remove engine.Coordinate) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(e *engine.GameEngine) (*engine.TouchResult, error) {
		return e.Merge(keep, remove)
	})
}

// act runs one input against a session, records a finished game and
// persists the session
func (s *gameServiceImpl) act(ctx context.Context, sessionID string, input func(*engine.GameEngine) (*engine.TouchResult, error)) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	tr, err := input(sess.Engine)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	result := &ActionResult{
		Success:   tr.Action == engine.SelectionMerge,
		Action:    tr.Action,
		Merge:     tr.Merge,
		GameState: state,
		Message:   actionMessage(tr, state),
		Events:    convertEvents(tr.Events),
		Cues:      tr.Cues,
		Summary:   tr.Summary,
	}

	if tr.Summary != nil {
		result.RecordID = s.recordGame(ctx, sess.ID, tr.Summary)
	}

	if tr.Action == engine.SelectionMerge {
		if err := s.sessions.Save(sessionID); err != nil {
			s.logger.Warn("failed to persist session after merge", zap.String("session", sessionID), zap.Error(err))
		}
	}

	return result, nil
}

// recordGame stores a finished game and returns the record ID, or "" when
// the store rejects it. Expects s.mu to be held.
func (s *gameServiceImpl) recordGame(ctx context.Context, sessionID string, summary *engine.GameSummary) string {
	s.logger.Info("game over",
		zap.String("session", sessionID),
		zap.String("config", summary.ConfigName),
		zap.Int("score", summary.Score),
		zap.Int("highest_level", summary.HighestLevel),
		zap.Int("moves", summary.MoveCount))

	record := records.NewGameRecord(sessionID, summary, s.now())
	if err := s.store.SaveRecord(ctx, record); err != nil {
		s.logger.Error("failed to save game record", zap.String("session", sessionID), zap.Error(err))
		return ""
	}
	return record.ID
}

// Tick expires the combo chain of one session if its window has passed
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return s.tick(sess), nil
}

// TickAll ticks every active session and returns only those whose combo ended
func (s *gameServiceImpl) TickAll(ctx context.Context) []*TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ended []*TickResult
	for _, sess := range s.sessions.List() {
		if r := s.tick(sess); r.ComboEnded {
			ended = append(ended, r)
		}
	}
	return ended
}

func (s *gameServiceImpl) tick(sess *Session) *TickResult {
	result := &TickResult{SessionID: sess.ID}
	if !sess.Engine.Tick() {
		return result
	}
	result.ComboEnded = true
	result.GameState = sess.Engine.GetState()
	result.Events = []GameEvent{{
		Type:      string(engine.EventComboEnded),
		Message:   "Combo chain ended",
		Timestamp: s.now(),
	}}
	return result
}

// Hint returns the first mergeable pair on the session's board
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	hint, ok := sess.Engine.Hint()
	if !ok {
		return &HintResponse{Available: false, Message: "No merges available"}, nil
	}
	return &HintResponse{
		Available: true,
		Hint:      hint,
		Message: fmt.Sprintf("Merge (%d,%d) with (%d,%d) at level %d",
			hint.A.X, hint.A.Y, hint.B.X, hint.B.Y, hint.Level),
	}, nil
}

// Reset starts a new game in the session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.Reset()

	if best, err := s.store.BestScore(ctx, sess.Config.Name); err == nil {
		sess.Engine.SetBestScore(best)
	} else {
		s.logger.Warn("best score lookup failed", zap.String("config", sess.Config.Name), zap.Error(err))
	}
	if summary := sess.Engine.Summary(); summary != nil {
		s.recordGame(ctx, sess.ID, summary)
	}

	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session after reset", zap.String("session", sessionID), zap.Error(err))
	}

	return sess.Engine.GetState(), nil
}

// GetGameState returns current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk. Omitted fields take the
// standard rules and an empty name takes configName.
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if config == nil {
		return fmt.Errorf("config %s: nil configuration", configName)
	}
	config.ApplyDefaults()
	if config.Name == "" {
		config.Name = configName
	}
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", zap.String("config", configName))
	return nil
}

// Statistics aggregates every recorded game
func (s *gameServiceImpl) Statistics(ctx context.Context) (*records.Statistics, error) {
	return s.store.Statistics(ctx)
}

// Leaderboard returns the top recorded games
func (s *gameServiceImpl) Leaderboard(ctx context.Context, limit int) ([]*records.GameRecord, error) {
	return s.store.TopScores(ctx, limit)
}

// Achievements evaluates the achievement catalog against recorded games
func (s *gameServiceImpl) Achievements(ctx context.Context) ([]records.AchievementStatus, error) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return records.Evaluate(stats), nil
}
