package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to a running game server over its REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// CreateSession starts a seeded game on the server
func (c *Client) CreateSession(ctx context.Context, configID string, seed int64) (*service.SessionInfo, error) {
	req := map[string]interface{}{"seed": seed}
	if configID != "" {
		req["config_id"] = configID
	}
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession removes a finished game from the server
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// RemotePlayer plays one server session
type RemotePlayer struct {
	client    *Client
	sessionID string
	state     *engine.GameState
	summary   *engine.GameSummary
}

// NewRemotePlayer creates a session on the server
func NewRemotePlayer(ctx context.Context, client *Client, configID string, seed int64) (*RemotePlayer, error) {
	info, err := client.CreateSession(ctx, configID, seed)
	if err != nil {
		return nil, err
	}
	return &RemotePlayer{client: client, sessionID: info.ID, state: info.GameState}, nil
}

func (p *RemotePlayer) path(suffix string) string {
	return "/api/sessions/" + url.PathEscape(p.sessionID) + suffix
}

func (p *RemotePlayer) State() *engine.GameState { return p.state }

func (p *RemotePlayer) Hint(ctx context.Context) (*engine.Hint, error) {
	var resp service.HintResponse
	if err := p.client.do(ctx, http.MethodGet, p.path("/hint"), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Available {
		return nil, nil
	}
	return resp.Hint, nil
}

func (p *RemotePlayer) Merge(ctx context.Context, keep, remove engine.Coordinate) error {
	req := map[string]engine.Coordinate{"keep": keep, "remove": remove}
	var result service.ActionResult
	if err := p.client.do(ctx, http.MethodPost, p.path("/merge"), req, &result); err != nil {
		return err
	}
	p.state = result.GameState
	if result.Summary != nil {
		p.summary = result.Summary
	}
	return nil
}

func (p *RemotePlayer) Summary() *engine.GameSummary {
	if p.summary != nil {
		return p.summary
	}
	return summaryFromState(p.state)
}

// Close deletes the session from the server
func (p *RemotePlayer) Close(ctx context.Context) error {
	return p.client.DeleteSession(ctx, p.sessionID)
}
