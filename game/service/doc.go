// Package service provides the business logic layer for the merge-blocks game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration lookup and saving
//   - Touch and merge processing
//   - Combo expiry across all sessions
//   - Recording finished games and reading statistics
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. When a merge
// ends a game the summary is written to a records.Store, and new sessions
// start from the best score stored for their configuration.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	store, _ := records.Open(ctx, records.Options{Kind: "sqlite", SQLitePath: "./data/records.db"})
//	gameService := service.NewGameService(sessionMgr, configMgr, store, service.WithLogger(logger))
//
//	sessionInfo, err := gameService.CreateSession(ctx, "normal", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Merge(ctx, sessionInfo.ID, engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 1, Y: 0})
//
// A background loop should call TickAll so combo chains expire while
// players are idle.
package service
