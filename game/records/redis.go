package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	recordKeyFmt   = "mergeblocks:record:%s"
	leaderboardKey = "mergeblocks:leaderboard"
	bestKeyFmt     = "mergeblocks:best:%s"
	totalsKey      = "mergeblocks:stats:totals"
	maximaKey      = "mergeblocks:stats:maxima"
)

// RedisStore keeps records in hashes, the leaderboard in a sorted set and
// running statistics in a totals hash plus a maxima sorted set
type RedisStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
	prefix string
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(ctx context.Context, addr string, logger *zap.Logger) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Info("redis record store ready", zap.String("addr", addr))
	return NewRedisStoreWithClient(rdb, logger), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(rdb redis.UniversalClient, logger *zap.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

// withPrefix namespaces every key, used to isolate test runs
func (s *RedisStore) withPrefix(prefix string) *RedisStore {
	s.prefix = prefix
	return s
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) recordKey(id string) string {
	return s.key(fmt.Sprintf(recordKeyFmt, id))
}

func (s *RedisStore) bestKey(configName string) string {
	return s.key(fmt.Sprintf(bestKeyFmt, configName))
}

// SaveRecord writes the record hash, leaderboard entry and running
// statistics in one transaction. A record whose ID is already stored is
// ignored.
func (s *RedisStore) SaveRecord(ctx context.Context, r *GameRecord) error {
	created, err := s.rdb.HSetNX(ctx, s.recordKey(r.ID), "id", r.ID).Result()
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if !created {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.recordKey(r.ID), map[string]interface{}{
		"id":            r.ID,
		"session_id":    r.SessionID,
		"config_name":   r.ConfigName,
		"score":         r.Score,
		"highest_level": r.HighestLevel,
		"move_count":    r.MoveCount,
		"merges":        r.Merges,
		"explosions":    r.Explosions,
		"max_combo":     r.MaxCombo,
		"finished_at":   r.FinishedAt.UnixMilli(),
	})
	pipe.ZAdd(ctx, s.key(leaderboardKey), redis.Z{Score: float64(r.Score), Member: r.ID})
	pipe.ZAddGT(ctx, s.key(maximaKey),
		redis.Z{Score: float64(r.Score), Member: "best_score"},
		redis.Z{Score: float64(r.HighestLevel), Member: "highest_level"},
		redis.Z{Score: float64(r.MaxCombo), Member: "best_combo"},
		redis.Z{Score: float64(r.Score), Member: s.bestKey(r.ConfigName)},
	)
	pipe.HIncrBy(ctx, s.key(totalsKey), "games", 1)
	pipe.HIncrBy(ctx, s.key(totalsKey), "score", int64(r.Score))
	pipe.HIncrBy(ctx, s.key(totalsKey), "merges", int64(r.Merges))
	pipe.HIncrBy(ctx, s.key(totalsKey), "explosions", int64(r.Explosions))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// GetRecord returns the record with the given ID
func (s *RedisStore) GetRecord(ctx context.Context, id string) (*GameRecord, error) {
	vals, err := s.rdb.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrRecordNotFound
	}
	return recordFromHash(vals), nil
}

// BestScore returns the highest score stored for configName, or 0
func (s *RedisStore) BestScore(ctx context.Context, configName string) (int, error) {
	score, err := s.rdb.ZScore(ctx, s.key(maximaKey), s.bestKey(configName)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("best score: %w", err)
	}
	return int(score), nil
}

// Statistics reads the running totals and maxima
func (s *RedisStore) Statistics(ctx context.Context) (*Statistics, error) {
	totals, err := s.rdb.HGetAll(ctx, s.key(totalsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("statistics totals: %w", err)
	}
	maxima, err := s.rdb.ZRangeWithScores(ctx, s.key(maximaKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("statistics maxima: %w", err)
	}

	stats := &Statistics{
		TotalGames:      atoi(totals["games"]),
		TotalScore:      atoi(totals["score"]),
		TotalMerges:     atoi(totals["merges"]),
		TotalExplosions: atoi(totals["explosions"]),
	}
	for _, z := range maxima {
		switch z.Member {
		case "best_score":
			stats.BestScore = int(z.Score)
		case "highest_level":
			stats.HighestLevel = int(z.Score)
		case "best_combo":
			stats.BestCombo = int(z.Score)
		}
	}
	stats.finish()
	return stats, nil
}

// TopScores returns up to limit records ordered by score, earliest first on
// ties. The sorted set only orders by score, so every member tied with the
// last place is fetched and ranked here.
func (s *RedisStore) TopScores(ctx context.Context, limit int) ([]*GameRecord, error) {
	limit = normalizeLimit(limit)
	top, err := s.rdb.ZRevRangeWithScores(ctx, s.key(leaderboardKey), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	if len(top) == 0 {
		return []*GameRecord{}, nil
	}

	cutoff := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	ids, err := s.rdb.ZRevRangeByScore(ctx, s.key(leaderboardKey), &redis.ZRangeBy{Min: cutoff, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("top scores records: %w", err)
	}

	out := make([]*GameRecord, 0, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			s.logger.Warn("leaderboard entry without record", zap.String("id", ids[i]))
			continue
		}
		out = append(out, recordFromHash(vals))
	}
	rankRecords(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func recordFromHash(vals map[string]string) *GameRecord {
	return &GameRecord{
		ID:           vals["id"],
		SessionID:    vals["session_id"],
		ConfigName:   vals["config_name"],
		Score:        atoi(vals["score"]),
		HighestLevel: atoi(vals["highest_level"]),
		MoveCount:    atoi(vals["move_count"]),
		Merges:       atoi(vals["merges"]),
		Explosions:   atoi(vals["explosions"]),
		MaxCombo:     atoi(vals["max_combo"]),
		FinishedAt:   time.UnixMilli(int64(atoi(vals["finished_at"]))),
	}
}

func atoi(s string) int {
	v, _ := strconv.ParseInt(s, 10, 64)
	return int(v)
}
