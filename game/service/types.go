package service

import (
	"time"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	RecordID       string             `json:"record_id,omitempty"`
}

// ActionResult contains the result of a touch or merge
type ActionResult struct {
	Success   bool                   `json:"success"`
	Action    engine.SelectionAction `json:"action"`
	Merge     *engine.MergeOutcome   `json:"merge,omitempty"`
	GameState *engine.GameState      `json:"game_state"`
	Message   string                 `json:"message"`
	Events    []GameEvent            `json:"events"`
	Cues      []engine.Cue           `json:"cues,omitempty"`
	Summary   *engine.GameSummary    `json:"summary,omitempty"`
	RecordID  string                 `json:"record_id,omitempty"`
}

// TickResult reports a combo chain that expired on a tick
type TickResult struct {
	SessionID  string            `json:"session_id"`
	ComboEnded bool              `json:"combo_ended"`
	Events     []GameEvent       `json:"events,omitempty"`
	GameState  *engine.GameState `json:"game_state,omitempty"`
}

// HintResponse carries the first mergeable pair, if any
type HintResponse struct {
	Available bool         `json:"available"`
	Hint      *engine.Hint `json:"hint,omitempty"`
	Message   string       `json:"message"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string             `json:"type"` // engine event types plus "reset"
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Position  *engine.Coordinate `json:"position,omitempty"`
	Level     int                `json:"level,omitempty"`
	Count     int                `json:"count,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename          string                   `json:"filename"`
	ConfigID          string                   `json:"config_id"` // The identifier to use for session creation
	Name              string                   `json:"name"`      // Display name
	Description       string                   `json:"description"`
	GridSize          int                      `json:"grid_size"`
	ExplodeLevel      int                      `json:"explode_level"`
	ExplodeRadius     int                      `json:"explode_radius"`
	ComboWindow       float64                  `json:"combo_window"`
	LevelDistribution engine.LevelDistribution `json:"level_distribution"`
}
