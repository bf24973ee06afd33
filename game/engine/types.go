package engine

import (
	"errors"
	"time"
)

const (
	// Validation constants
	MinGridSize          = 4
	MaxGridSize          = 6
	MinExplodeLevel      = 4
	MaxExplodeLevel      = 20
	MaxComboStep         = 10.0
	MaxSpawnLevel        = 3
	DistributionTotal    = 100
	MaxHistoryEntries    = 1000
	WebSocketBufferSize  = 256
	DefaultConfigName    = "normal"
	defaultGridSize      = 5
	defaultExplodeLevel  = 10
	defaultExplodeRadius = 1
	defaultLowLevel      = 3
	defaultLevelDrop     = 2
	defaultComboWindow   = 3.0
	defaultComboStep     = 0.5
	defaultStartBlocks   = 5
	defaultMilestone     = 8
	maxStartingDeals     = 8
)

var (
	ErrOutOfBounds  = errors.New("coordinate out of bounds")
	ErrCellOccupied = errors.New("cell occupied")
	ErrCellEmpty    = errors.New("cell empty")
	ErrInvalidLevel = errors.New("invalid block level")
	ErrInvalidMerge = errors.New("invalid merge")
	ErrBoardFull    = errors.New("board full")
	ErrBusy         = errors.New("engine busy")
	ErrGameOver     = errors.New("game over")
)

// Coordinate represents x,y grid coordinates
type Coordinate struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Block is a single leveled piece resident on the grid
type Block struct {
	Level    int        `json:"level"`
	Position Coordinate `json:"position"`
}

// Value returns 2^level
func (b Block) Value() int {
	return BlockValue(b.Level)
}

// BlockValue returns the point value of a level
func BlockValue(level int) int {
	if level < 0 {
		return 0
	}
	return 1 << uint(level)
}

// LevelDistribution holds spawn weights for levels 1, 2 and 3 (percent)
type LevelDistribution struct {
	Level1 int `json:"level_1" yaml:"level_1"`
	Level2 int `json:"level_2" yaml:"level_2"`
	Level3 int `json:"level_3" yaml:"level_3"`
}

// GameConfig represents the rules of a game, loaded from JSON or YAML
type GameConfig struct {
	Name                string            `json:"name" yaml:"name"`
	Description         string            `json:"description" yaml:"description"`
	GridSize            int               `json:"grid_size" yaml:"grid_size"`
	ExplodeLevel        int               `json:"explode_level" yaml:"explode_level"`
	ExplodeRadius       int               `json:"explode_radius" yaml:"explode_radius"`
	ExplodeLowLevel     int               `json:"explode_low_level" yaml:"explode_low_level"`
	ExplodeLevelDrop    int               `json:"explode_level_drop" yaml:"explode_level_drop"`
	ComboWindow         float64           `json:"combo_window" yaml:"combo_window"`
	ComboMultiplierStep float64           `json:"combo_multiplier_step" yaml:"combo_multiplier_step"`
	StartingBlocks      int               `json:"starting_blocks" yaml:"starting_blocks"`
	LevelDistribution   LevelDistribution `json:"level_distribution" yaml:"level_distribution"`
	MilestoneLevel      int               `json:"milestone_level" yaml:"milestone_level"`
}

// ComboWindowDuration returns the combo window as a time.Duration
func (c *GameConfig) ComboWindowDuration() time.Duration {
	return time.Duration(c.ComboWindow * float64(time.Second))
}

// BlockState is the persisted form of a block
type BlockState struct {
	Level int `json:"level"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// GameState is a snapshot of a game, sufficient to resume it
type GameState struct {
	ConfigName   string       `json:"config_name"`
	GridSize     int          `json:"grid_size"`
	Blocks       []BlockState `json:"blocks"`
	Board        [][]int      `json:"board"`
	Score        int          `json:"score"`
	BestScore    int          `json:"best_score"`
	ComboCount   int          `json:"combo_count"`
	MoveCount    int          `json:"move_count"`
	HighestLevel int          `json:"highest_level"`
	HighestValue int          `json:"highest_value"`
	Merges       int          `json:"merges"`
	Explosions   int          `json:"explosions"`
	MaxCombo     int          `json:"max_combo"`
	Seed         int64        `json:"seed"`
	GameOver     bool         `json:"game_over"`
	Selected     *Coordinate  `json:"selected,omitempty"`
	Message      string       `json:"message"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`
}

// MoveHistoryEntry records a single merge in the game history
type MoveHistoryEntry struct {
	Action     string     `json:"action"`
	Keep       Coordinate `json:"keep"`
	Remove     Coordinate `json:"remove"`
	LevelAfter int        `json:"level_after"`
	Points     int        `json:"points"`
	Combo      int        `json:"combo"`
	Exploded   bool       `json:"exploded"`
	Spawned    int        `json:"spawned"`
	Timestamp  int64      `json:"timestamp"`
	MoveNumber int        `json:"move_number"`
}

// GameSummary is emitted at game over for the persistence collaborator
type GameSummary struct {
	ConfigName   string `json:"config_name"`
	Score        int    `json:"score"`
	BestScore    int    `json:"best_score"`
	HighestLevel int    `json:"highest_level"`
	MoveCount    int    `json:"move_count"`
	Merges       int    `json:"merges"`
	Explosions   int    `json:"explosions"`
	MaxCombo     int    `json:"max_combo"`
}

// Hint names a pair of blocks that can currently be merged
type Hint struct {
	A     Coordinate `json:"a"`
	B     Coordinate `json:"b"`
	Level int        `json:"level"`
}
