// Package remote talks to the obstacle course server over REST and WebSocket.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrHidden is returned for tiles the server does not show yet
var ErrHidden = errors.New("tile is still hidden")

// Client is a REST client for one server
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ListSessions() ([]SessionListItem, error) {
	var resp struct {
		Sessions []SessionListItem `json:"sessions"`
	}
	if err := c.do(http.MethodGet, "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) ListQuestionSets() ([]QuestionSetItem, error) {
	var sets []QuestionSetItem
	if err := c.do(http.MethodGet, "/api/question-sets", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// CreateSession starts a session and returns its ID
func (c *Client) CreateSession(questionSetID string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]string{"question_set_id": questionSetID}
	if err := c.do(http.MethodPost, "/api/sessions", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) State(sessionID string) (*GameState, error) {
	var state GameState
	if err := c.do(http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Prompt asks the server for the question behind a square
func (c *Client) Prompt(sessionID string, square int) (*InputRequest, error) {
	var req InputRequest
	if err := c.do(http.MethodGet, sessionPath(sessionID, fmt.Sprintf("/squares/%d", square)), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) Attempt(sessionID string, square int, answer string) (*ActionResponse, error) {
	body := map[string]interface{}{"square": square, "answer": answer}
	return c.act(sessionPath(sessionID, "/attempt"), body)
}

func (c *Client) GuessObstacle(sessionID, guess string) (*ActionResponse, error) {
	return c.act(sessionPath(sessionID, "/obstacle"), map[string]string{"guess": guess})
}

func (c *Client) FinalGuess(sessionID, guess string) (*ActionResponse, error) {
	return c.act(sessionPath(sessionID, "/final-guess"), map[string]string{"guess": guess})
}

func (c *Client) Reset(sessionID string) error {
	return c.do(http.MethodPost, sessionPath(sessionID, "/reset"), nil, nil)
}

// Tile downloads and decodes the picture tile at row, col
func (c *Client) Tile(sessionID string, row, col int) (image.Image, error) {
	resp, err := c.http.Get(c.baseURL + sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", row, col)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrHidden
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %d,%d: %s", row, col, resp.Status)
	}
	return png.Decode(resp.Body)
}

// Dial opens the live update connection for a session
func (c *Client) Dial(sessionID string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session": {sessionID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

// ReadState blocks until the next frame that carries a game state
func ReadState(conn *websocket.Conn) (*GameState, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.GameState != nil {
			return msg.GameState, nil
		}
	}
}

func (c *Client) act(path string, body interface{}) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *Client) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
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
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(data))
	}
	return nil
}
