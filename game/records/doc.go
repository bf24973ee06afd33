// Package records stores finished games and derives statistics, the
// leaderboard and achievements from them.
//
// Core Types:
//
// Store is implemented by MemoryStore (process memory), SQLiteStore
// (a migrated SQLite file) and RedisStore (hashes plus sorted sets).
// GameRecord is built from an engine.GameSummary when a game ends, and
// the best score per configuration is read back when a session starts.
//
// Usage:
//
//	store, err := records.Open(ctx, records.Options{Kind: "sqlite", SQLitePath: "./data/records.db"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	store.SaveRecord(ctx, records.NewGameRecord(sessionID, summary, time.Now()))
//	stats, _ := store.Statistics(ctx)
//	achievements := records.Evaluate(stats)
package records
