// Package api provides the HTTP REST API for the merge-blocks game.
//
// Endpoints (all under /api):
//
// Session Management:
//   - POST /sessions - Create a session, body {"config_id": "easy", "seed": 42}
//   - GET /sessions - List sessions (?sort=accessed|created|score&order=&limit=)
//   - GET /sessions/unified - Multi-session view (?sessionIds= or ?configName=)
//   - GET /sessions/{id} - Session details
//   - DELETE /sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /sessions/{id}/state - Current board, score and combo
//   - POST /sessions/{id}/touch - Touch a cell, body {"x": 1, "y": 2}
//   - POST /sessions/{id}/merge - Merge directly, body {"keep": {...}, "remove": {...}}
//   - POST /sessions/{id}/tick - Expire the combo chain if its window passed
//   - GET /sessions/{id}/hint - First mergeable pair
//   - POST /sessions/{id}/reset - Start a new game in the session
//   - GET /sessions/{id}/history - Merge history (?page=&limit=&order=)
//
// Configuration and Records:
//   - GET, POST /configs and GET /configs/{name}
//   - GET /stats, GET /leaderboard?limit=, GET /achievements
//   - GET /health
//
// Touch and merge responses carry the selection action, the merge outcome,
// the events the input produced and the resulting game state. The same
// events are pushed to WebSocket clients of the session (/ws?session=).
//
// Error Handling:
//
// Errors are returned as {"error": "message"} with a status derived from
// the error: 404 for unknown sessions and configs, 409 while the engine is
// busy or the game is over, 400 for invalid coordinates and merges.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, api.WithLogger(logger))
//	http.ListenAndServe(":8080", server)
package api
