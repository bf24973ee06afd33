package records

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func record(config string, score, level, merges, explosions, combo int, minute int) *GameRecord {
	return &GameRecord{
		ID:           uuid.NewString(),
		SessionID:    "s" + config,
		ConfigName:   config,
		Score:        score,
		HighestLevel: level,
		MoveCount:    merges,
		Merges:       merges,
		Explosions:   explosions,
		MaxCombo:     combo,
		FinishedAt:   baseTime.Add(time.Duration(minute) * time.Minute),
	}
}

// runStoreSuite exercises the Store contract against any implementation
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		best, err := store.BestScore(ctx, "normal")
		if err != nil {
			t.Fatalf("BestScore: %v", err)
		}
		if best != 0 {
			t.Errorf("Expected best 0, got %d", best)
		}
		stats, err := store.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics: %v", err)
		}
		if stats.TotalGames != 0 || stats.AverageScore != 0 {
			t.Errorf("Expected empty statistics, got %+v", stats)
		}
		top, err := store.TopScores(ctx, 5)
		if err != nil {
			t.Fatalf("TopScores: %v", err)
		}
		if len(top) != 0 {
			t.Errorf("Expected empty leaderboard, got %d", len(top))
		}
		if _, err := store.GetRecord(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Expected ErrRecordNotFound, got %v", err)
		}
	})

	first := record("normal", 1200, 8, 40, 0, 3, 0)
	second := record("normal", 3400, 10, 90, 1, 6, 1)
	third := record("hard", 800, 7, 30, 0, 2, 2)
	for _, r := range []*GameRecord{first, second, third} {
		if err := store.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	t.Run("get record", func(t *testing.T) {
		got, err := store.GetRecord(ctx, second.ID)
		if err != nil {
			t.Fatalf("GetRecord: %v", err)
		}
		if got.Score != 3400 || got.ConfigName != "normal" || got.Explosions != 1 || got.MaxCombo != 6 {
			t.Errorf("Unexpected record %+v", got)
		}
		if !got.FinishedAt.Equal(second.FinishedAt) {
			t.Errorf("Expected finished at %v, got %v", second.FinishedAt, got.FinishedAt)
		}
	})

	t.Run("best score per config", func(t *testing.T) {
		for config, want := range map[string]int{"normal": 3400, "hard": 800, "easy": 0} {
			got, err := store.BestScore(ctx, config)
			if err != nil {
				t.Fatalf("BestScore(%s): %v", config, err)
			}
			if got != want {
				t.Errorf("BestScore(%s) = %d, want %d", config, got, want)
			}
		}
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := store.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics: %v", err)
		}
		want := Statistics{
			TotalGames:      3,
			TotalScore:      5400,
			AverageScore:    1800,
			BestScore:       3400,
			HighestLevel:    10,
			HighestValue:    1024,
			TotalMerges:     160,
			TotalExplosions: 1,
			BestCombo:       6,
		}
		if *stats != want {
			t.Errorf("Statistics mismatch:\n got %+v\nwant %+v", *stats, want)
		}
	})

	t.Run("top scores", func(t *testing.T) {
		top, err := store.TopScores(ctx, 2)
		if err != nil {
			t.Fatalf("TopScores: %v", err)
		}
		if len(top) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(top))
		}
		if top[0].ID != second.ID || top[1].ID != first.ID {
			t.Errorf("Unexpected order: %d, %d", top[0].Score, top[1].Score)
		}

		all, _ := store.TopScores(ctx, 0)
		if len(all) != 3 {
			t.Errorf("Expected default limit to return all 3, got %d", len(all))
		}
	})

	// four games tied on score, saved latest first
	var tied []*GameRecord
	for minute := 14; minute >= 11; minute-- {
		r := record("tied", 5000, 11, 100, 2, 4, minute)
		if err := store.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
		tied = append([]*GameRecord{r}, tied...)
	}

	t.Run("ties ordered by finish time", func(t *testing.T) {
		top, err := store.TopScores(ctx, 3)
		if err != nil {
			t.Fatalf("TopScores: %v", err)
		}
		if len(top) != 3 {
			t.Fatalf("Expected 3 entries, got %d", len(top))
		}
		for i, r := range top {
			if r.ID != tied[i].ID {
				t.Errorf("Position %d: expected the game finished at %v, got %v",
					i, tied[i].FinishedAt.UTC(), r.FinishedAt.UTC())
			}
		}
	})

	t.Run("duplicate record ignored", func(t *testing.T) {
		dup := *tied[0]
		dup.Score = 9999
		if err := store.SaveRecord(ctx, &dup); err != nil {
			t.Fatalf("SaveRecord duplicate: %v", err)
		}

		stats, err := store.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics: %v", err)
		}
		if stats.TotalGames != 7 || stats.BestScore != 5000 {
			t.Errorf("Expected 7 games with best 5000, got %d with best %d", stats.TotalGames, stats.BestScore)
		}
		got, err := store.GetRecord(ctx, dup.ID)
		if err != nil {
			t.Fatalf("GetRecord: %v", err)
		}
		if got.Score != 5000 {
			t.Errorf("Expected the first save to win, got score %d", got.Score)
		}
		all, _ := store.TopScores(ctx, 20)
		if len(all) != 7 {
			t.Errorf("Expected 7 leaderboard entries, got %d", len(all))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "records.db")
	store, err := NewSQLiteStore(ctx, path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	runStoreSuite(t, store)
}

func TestSQLiteStore_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")
	logger := zaptest.NewLogger(t)

	store, err := NewSQLiteStore(ctx, path, logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	r := record("easy", 2000, 9, 50, 0, 2, 0)
	if err := store.SaveRecord(ctx, r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	// duplicate IDs are ignored
	if err := store.SaveRecord(ctx, r); err != nil {
		t.Fatalf("SaveRecord duplicate: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	stats, err := reopened.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalGames != 1 || stats.BestScore != 2000 {
		t.Errorf("Expected one persisted game, got %+v", stats)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	prefix := "test:" + uuid.NewString() + ":"
	store.withPrefix(prefix)
	defer func() {
		cleanupRedis(ctx, store.rdb, prefix+"*")
		store.Close()
	}()

	runStoreSuite(t, store)
}

func cleanupRedis(ctx context.Context, rdb redis.UniversalClient, pattern string) {
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		rdb.Del(ctx, iter.Val())
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Expected memory store by default, got %T", store)
	}

	sqlite, err := Open(ctx, Options{Kind: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "r.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	sqlite.Close()

	if _, err := Open(ctx, Options{Kind: "mongo"}); !errors.Is(err, ErrUnknownStore) {
		t.Errorf("Expected ErrUnknownStore, got %v", err)
	}
}

func TestNewGameRecord(t *testing.T) {
	summary := &engine.GameSummary{
		ConfigName:   "hard",
		Score:        4321,
		HighestLevel: 11,
		MoveCount:    77,
		Merges:       77,
		Explosions:   2,
		MaxCombo:     4,
	}
	r := NewGameRecord("ab12", summary, baseTime)
	if r.ID == "" {
		t.Error("Expected a generated ID")
	}
	if r.SessionID != "ab12" || r.ConfigName != "hard" || r.Score != 4321 || r.Explosions != 2 {
		t.Errorf("Unexpected record %+v", r)
	}
	if other := NewGameRecord("ab12", summary, baseTime); other.ID == r.ID {
		t.Error("Expected unique IDs")
	}
}
