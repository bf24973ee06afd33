package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// migrations are applied in order and recorded in _migrations
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "001_game_records",
		sql: `CREATE TABLE IF NOT EXISTS game_records (
			id            TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL,
			config_name   TEXT NOT NULL,
			score         INTEGER NOT NULL,
			highest_level INTEGER NOT NULL,
			move_count    INTEGER NOT NULL,
			merges        INTEGER NOT NULL,
			explosions    INTEGER NOT NULL,
			max_combo     INTEGER NOT NULL,
			finished_at   INTEGER NOT NULL
		);`,
	},
	{
		name: "002_game_records_indexes",
		sql: `CREATE INDEX IF NOT EXISTS idx_game_records_score ON game_records(score DESC, finished_at ASC);
		CREATE INDEX IF NOT EXISTS idx_game_records_config ON game_records(config_name, score DESC);`,
	},
}

// SQLiteStore persists records in a SQLite database file
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies pending migrations
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "./data/records.db"
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite record store ready", zap.String("path", path))
	return s, nil
}

// openDB opens a SQLite file with WAL journaling and a busy timeout
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, m.name).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.name, err)
		}
		s.logger.Info("migration applied", zap.String("migration", m.name))
	}
	return nil
}

// SaveRecord inserts a record; saving the same ID twice is ignored
func (s *SQLiteStore) SaveRecord(ctx context.Context, r *GameRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO game_records
			(id, session_id, config_name, score, highest_level, move_count, merges, explosions, max_combo, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.ConfigName, r.Score, r.HighestLevel, r.MoveCount,
		r.Merges, r.Explosions, r.MaxCombo, r.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

const recordColumns = `id, session_id, config_name, score, highest_level, move_count, merges, explosions, max_combo, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*GameRecord, error) {
	var r GameRecord
	var finished int64
	if err := row.Scan(&r.ID, &r.SessionID, &r.ConfigName, &r.Score, &r.HighestLevel,
		&r.MoveCount, &r.Merges, &r.Explosions, &r.MaxCombo, &finished); err != nil {
		return nil, err
	}
	r.FinishedAt = time.UnixMilli(finished)
	return &r, nil
}

// GetRecord returns the record with the given ID
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM game_records WHERE id=?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// BestScore returns the highest score stored for configName, or 0
func (s *SQLiteStore) BestScore(ctx context.Context, configName string) (int, error) {
	var best int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(score), 0) FROM game_records WHERE config_name=?`, configName,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("best score: %w", err)
	}
	return best, nil
}

// Statistics aggregates all records in one query
func (s *SQLiteStore) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(score), 0),
		       COALESCE(MAX(score), 0),
		       COALESCE(MAX(highest_level), 0),
		       COALESCE(SUM(merges), 0),
		       COALESCE(SUM(explosions), 0),
		       COALESCE(MAX(max_combo), 0)
		FROM game_records`,
	).Scan(&stats.TotalGames, &stats.TotalScore, &stats.BestScore, &stats.HighestLevel,
		&stats.TotalMerges, &stats.TotalExplosions, &stats.BestCombo)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	stats.finish()
	return stats, nil
}

// TopScores returns up to limit records ordered by score, earliest first on ties
func (s *SQLiteStore) TopScores(ctx context.Context, limit int) ([]*GameRecord, error) {
	limit = normalizeLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM game_records
		ORDER BY score DESC, finished_at ASC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	out := make([]*GameRecord, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
