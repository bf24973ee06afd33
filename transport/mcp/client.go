package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/records"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Merge Blocks",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Merge Blocks - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Merge adjacent blocks of equal level to build higher levels and score points.
The game ends when no two adjacent blocks share a level.

AVAILABLE TOOLS:
- create_session: Start a new game (optional config and seed)
- list_sessions / get_session: Inspect sessions
- game_state: Board, score, best score and combo
- touch: Touch a cell (select, cancel, or merge with the selection)
- merge: Merge two adjacent equal blocks directly
- hint: Find a pair that can be merged
- reset_game: Start over in the same session
- move_history: Past merges
- list_configs: Available presets
- statistics / leaderboard: Finished games
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer", "description": "Column, 0 is left"},
			"y": map[string]interface{}{"type": "integer", "description": "Row, 0 is top"},
		},
		"required": []string{"x", "y"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use, see list_configs (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Random seed for a reproducible game (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score, best score and combo",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "touch",
		Description: "Touch a cell. The first touch selects a block; touching an adjacent block of the same level merges into the first one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x":          map[string]interface{}{"type": "integer", "description": "Column, 0 is left"},
				"y":          map[string]interface{}{"type": "integer", "description": "Row, 0 is top"},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleTouch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "merge",
		Description: "Merge the block at remove into the adjacent block of the same level at keep",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"keep":       coordinateProperty("Block that levels up"),
				"remove":     coordinateProperty("Block that is consumed"),
			},
			Required: []string{"session_id", "keep", "remove"},
		},
	}, c.handleMerge)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Find a pair of adjacent blocks that can be merged",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new game in the session; the best score is kept",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "View past merges with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Entries per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and strategy notes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	// Records
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "statistics",
		Description: "Aggregate statistics and achievements over all finished games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStatistics)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Top finished games by score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool arguments as a map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// coordinateArg reads an {x, y} object argument
func coordinateArg(args map[string]interface{}, key string) (engine.Coordinate, error) {
	raw, ok := args[key].(map[string]interface{})
	if !ok {
		return engine.Coordinate{}, fmt.Errorf("%s must be an object with x and y", key)
	}
	x, okX := intArg(raw, "x")
	y, okY := intArg(raw, "y")
	if !okX || !okY {
		return engine.Coordinate{}, fmt.Errorf("%s must have integer x and y", key)
	}
	return engine.Coordinate{X: x, Y: y}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if seed, ok := intArg(args, "seed"); ok {
		body["seed"] = seed
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", info.ID, info.ConfigName, formatGameState(info.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, info := range response.Sessions {
		result += formatSessionInfo(info) + "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatSessionInfo(&info) + "\n" + formatGameState(info.GameState)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleTouch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var result service.ActionResult
	body := map[string]int{"x": x, "y": y}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/touch"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	keep, err := coordinateArg(args, "keep")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remove, err := coordinateArg(args, "remove")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	body := map[string]engine.Coordinate{"keep": keep, "remove": remove}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/merge"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var hint service.HintResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hint"), nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !hint.Available || hint.Hint == nil {
		return mcp.NewToolResultText(hint.Message), nil
	}

	h := hint.Hint
	result := fmt.Sprintf("Merge (%d,%d) with (%d,%d): both level %d (value %d)\nUse merge with keep={x:%d,y:%d} remove={x:%d,y:%d}",
		h.A.X, h.A.Y, h.B.X, h.B.Y, h.Level, engine.BlockValue(h.Level),
		h.A.X, h.A.Y, h.B.X, h.B.Y)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		d := config.LevelDistribution
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Explodes at level %d (radius %d), Combo window %.1fs, Spawns %d/%d/%d\n\n",
			config.Name, config.ConfigID, config.Description, config.GridSize, config.GridSize,
			config.ExplodeLevel, config.ExplodeRadius, config.ComboWindow, d.Level1, d.Level2, d.Level3)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Merge Blocks - Complete Instructions

GAME OBJECTIVE:
Merge blocks to build the highest level you can and rack up points before the board locks up.

BOARD:
• A square grid (5x5 by default). Coordinates are (x, y) with (0,0) in the top-left corner.
• Each block has a level; its value is 2^level (level 1 = 2, level 10 = 1024).
• game_state shows levels on the board; 0 or "." is an empty cell.

MERGING:
• Two blocks merge when they are orthogonally adjacent and have the same level.
• The kept block goes up one level and the removed block disappears.
• After every merge one new block spawns on a random empty cell (level 1, 2 or 3 by the config's weights).

TOUCH CONTROLS:
• touch a block to select it.
• touch the same block again to cancel.
• touch an adjacent block of the same level to merge it into the selected block.
• touch any other block to select that one instead.
• merge does the same in a single call: keep levels up, remove is consumed.

SCORING:
• A merge scores the new block's value.
• Merges made within the combo window of each other build a combo; every step raises the multiplier.
• The combo ends when the window passes without a merge.

EXPLOSIONS:
• Reaching the explosion level clears the neighborhood around the new block and scores the cleared blocks.
• Small blocks caught in the blast are removed; larger ones drop levels.

GAME OVER:
• The game ends when no two adjacent blocks share a level.
• Finished games go to the leaderboard and count toward statistics and achievements.

STRATEGY:
• Use hint when stuck; it returns the first mergeable pair.
• Keep high levels in a corner and feed them from one side.
• Chain merges quickly to keep the combo multiplier alive.
• Avoid filling the board with mismatched levels; each merge adds one block back.

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats records.Statistics
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var achievements struct {
		Unlocked     int                         `json:"unlocked"`
		Total        int                         `json:"total"`
		Achievements []records.AchievementStatus `json:"achievements"`
	}
	// Achievements are optional in the summary
	achErr := c.apiCall(ctx, "GET", "/api/achievements", nil, &achievements)

	result := formatStatistics(&stats)
	if achErr == nil {
		result += fmt.Sprintf("\nAchievements: %d/%d unlocked\n", achievements.Unlocked, achievements.Total)
		for _, a := range achievements.Achievements {
			mark := " "
			if a.Unlocked {
				mark = "✓"
			}
			result += fmt.Sprintf("  [%s] %s: %s (%d/%d)\n", mark, a.Name, a.Description, a.Progress, a.Target)
		}
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/leaderboard"
	if limit, ok := intArg(arguments(request), "limit"); ok {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count   int                   `json:"count"`
		Entries []*records.GameRecord `json:"entries"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Entries)), nil
}

// Formatting

func formatSessionInfo(info *service.SessionInfo) string {
	score := 0
	status := "playing"
	if info.GameState != nil {
		score = info.GameState.Score
		if info.GameState.GameOver {
			status = "game over"
		}
	}
	return fmt.Sprintf("• %s (config: %s, score: %d, %s, last active %s)",
		info.ID, info.ConfigName, score, status, info.LastAccessedAt.Format(time.RFC3339))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Best: %d | Combo: %d | Moves: %d\n",
		state.Score, state.BestScore, state.ComboCount, state.MoveCount)
	if state.HighestLevel > 0 {
		fmt.Fprintf(&b, "Highest block: level %d (%d)\n", state.HighestLevel, state.HighestValue)
	}
	if state.Selected != nil {
		fmt.Fprintf(&b, "Selected: (%d,%d)\n", state.Selected.X, state.Selected.Y)
	}
	b.WriteString("\n")
	b.WriteString(formatBoard(state))

	if state.GameOver {
		fmt.Fprintf(&b, "\nGAME OVER - final score %d\n", state.Score)
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", state.Message)
	}
	return b.String()
}

// formatBoard renders levels with column and row headers; the selected
// cell is bracketed
func formatBoard(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString("    ")
	for x := 0; x < state.GridSize; x++ {
		fmt.Fprintf(&b, "%3d ", x)
	}
	b.WriteString("\n")

	for y, row := range state.Board {
		fmt.Fprintf(&b, "%3d ", y)
		for x, level := range row {
			cell := "."
			if level > 0 {
				cell = fmt.Sprint(level)
			}
			if state.Selected != nil && state.Selected.X == x && state.Selected.Y == y {
				fmt.Fprintf(&b, "[%2s]", cell)
				continue
			}
			fmt.Fprintf(&b, "%3s ", cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	status := "✓"
	if !result.Success {
		status = "✗"
	}
	fmt.Fprintf(&b, "%s %s: %s\n", status, result.Action, result.Message)

	for _, ev := range result.Events {
		switch engine.EventType(ev.Type) {
		case engine.EventBlockHighlighted, engine.EventBlockUnhighlighted, engine.EventBlockSpawned, engine.EventBlockRemoved:
			// board changes are visible in the state below
			continue
		}
		fmt.Fprintf(&b, "  • %s\n", ev.Message)
	}

	if result.Summary != nil {
		fmt.Fprintf(&b, "\nFinal: score %d, highest level %d, %d merges, %d explosions, best combo %d\n",
			result.Summary.Score, result.Summary.HighestLevel, result.Summary.Merges,
			result.Summary.Explosions, result.Summary.MaxCombo)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	if history.TotalMoves == 0 {
		return "No merges yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Merge History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		fmt.Fprintf(&b, "• (%d,%d) <- (%d,%d) level %d, +%d points, combo %d\n",
			m.Keep.X, m.Keep.Y, m.Remove.X, m.Remove.Y, m.LevelAfter, m.Points, m.Combo)
	}
	return b.String()
}

func formatStatistics(stats *records.Statistics) string {
	if stats.TotalGames == 0 {
		return "No finished games yet\n"
	}
	return fmt.Sprintf(`Statistics:
  Games played: %d
  Best score: %d
  Average score: %.1f
  Highest block: level %d (%d)
  Total merges: %d
  Total explosions: %d
  Best combo: %d
`, stats.TotalGames, stats.BestScore, stats.AverageScore, stats.HighestLevel, stats.HighestValue,
		stats.TotalMerges, stats.TotalExplosions, stats.BestCombo)
}

func formatLeaderboard(entries []*records.GameRecord) string {
	if len(entries) == 0 {
		return "Leaderboard is empty"
	}
	var b strings.Builder
	b.WriteString("Leaderboard:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%2d. %6d  %-10s level %d, %d merges  %s\n",
			i+1, e.Score, e.ConfigName, e.HighestLevel, e.Merges, e.FinishedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
