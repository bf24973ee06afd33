// Package mcp exposes the merge-blocks game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request to a
// running game server, and the JSON response is rendered as text an agent
// can read. No game state lives in this package.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board with levels, score, best score and combo
//   - touch: select, cancel or merge through the touch flow
//   - merge: merge two adjacent equal blocks in one call
//   - hint: first mergeable pair
//   - reset_game, move_history
//   - list_configs, game_instructions
//   - statistics (with achievements), leaderboard
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
