package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/service"
)

// Client talks to the game server's REST API for one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays in
func (c *Client) SessionID() string {
	return c.sessionID
}

// CreateSession starts a new session for a question set and adopts it
func (c *Client) CreateSession(ctx context.Context, questionSetID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	body := map[string]string{"question_set_id": questionSetID}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return &session, nil
}

// Resume adopts an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	return c.GetSession(ctx)
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (c *Client) Attempt(ctx context.Context, square int, answer string) (*service.ActionResponse, error) {
	body := map[string]interface{}{"square": square, "answer": answer}
	return c.act(ctx, "/attempt", body)
}

func (c *Client) GuessObstacle(ctx context.Context, guess string) (*service.ActionResponse, error) {
	return c.act(ctx, "/obstacle", map[string]string{"guess": guess})
}

func (c *Client) FinalGuess(ctx context.Context, guess string) (*service.ActionResponse, error) {
	return c.act(ctx, "/final-guess", map[string]string{"guess": guess})
}

type resetResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp resetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

func (c *Client) act(ctx context.Context, path string, body interface{}) (*service.ActionResponse, error) {
	var resp service.ActionResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath(path), body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", strings.TrimPrefix(path, "/"), err)
	}
	return &resp, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
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
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
