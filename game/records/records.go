package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownStore   = errors.New("unknown record store")
)

// DefaultLeaderboardLimit is used when a caller asks for a non-positive limit
const DefaultLeaderboardLimit = 10

// GameRecord is one finished game
type GameRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	ConfigName   string    `json:"config_name"`
	Score        int       `json:"score"`
	HighestLevel int       `json:"highest_level"`
	MoveCount    int       `json:"move_count"`
	Merges       int       `json:"merges"`
	Explosions   int       `json:"explosions"`
	MaxCombo     int       `json:"max_combo"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewGameRecord builds a record from a game-over summary
func NewGameRecord(sessionID string, summary *engine.GameSummary, finishedAt time.Time) *GameRecord {
	return &GameRecord{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		ConfigName:   summary.ConfigName,
		Score:        summary.Score,
		HighestLevel: summary.HighestLevel,
		MoveCount:    summary.MoveCount,
		Merges:       summary.Merges,
		Explosions:   summary.Explosions,
		MaxCombo:     summary.MaxCombo,
		FinishedAt:   finishedAt,
	}
}

// Statistics aggregates every stored game
type Statistics struct {
	TotalGames      int     `json:"total_games"`
	TotalScore      int     `json:"total_score"`
	AverageScore    float64 `json:"average_score"`
	BestScore       int     `json:"best_score"`
	HighestLevel    int     `json:"highest_level"`
	HighestValue    int     `json:"highest_value"`
	TotalMerges     int     `json:"total_merges"`
	TotalExplosions int     `json:"total_explosions"`
	BestCombo       int     `json:"best_combo"`
}

// finish fills the derived fields
func (s *Statistics) finish() {
	if s.TotalGames > 0 {
		s.AverageScore = float64(s.TotalScore) / float64(s.TotalGames)
	}
	if s.HighestLevel > 0 {
		s.HighestValue = engine.BlockValue(s.HighestLevel)
	}
}

// add folds one record into the aggregate
func (s *Statistics) add(r *GameRecord) {
	s.TotalGames++
	s.TotalScore += r.Score
	s.TotalMerges += r.Merges
	s.TotalExplosions += r.Explosions
	if r.Score > s.BestScore {
		s.BestScore = r.Score
	}
	if r.HighestLevel > s.HighestLevel {
		s.HighestLevel = r.HighestLevel
	}
	if r.MaxCombo > s.BestCombo {
		s.BestCombo = r.MaxCombo
	}
}

// Store persists finished games and answers best-score, statistics and
// leaderboard queries
type Store interface {
	SaveRecord(ctx context.Context, record *GameRecord) error
	GetRecord(ctx context.Context, id string) (*GameRecord, error)
	BestScore(ctx context.Context, configName string) (int, error)
	Statistics(ctx context.Context) (*Statistics, error)
	TopScores(ctx context.Context, limit int) ([]*GameRecord, error)
	Close() error
}

// Options selects and configures a Store
type Options struct {
	Kind       string // memory, sqlite or redis
	SQLitePath string
	RedisAddr  string
	Logger     *zap.Logger
}

// Open creates the store named by opts.Kind
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, opts.SQLitePath, logger)
	case "redis":
		return NewRedisStore(ctx, opts.RedisAddr, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, opts.Kind)
	}
}

// rankRecords orders a leaderboard: highest score first, then the game
// that finished earliest, then by ID
func rankRecords(rs []*GameRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		if !rs[i].FinishedAt.Equal(rs[j].FinishedAt) {
			return rs[i].FinishedAt.Before(rs[j].FinishedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return limit
}
