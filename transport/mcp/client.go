package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/results"
	"github.com/wricardo/obstacle-course/game/service"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

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
		"Obstacle Course",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Obstacle Course - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Four teams take turns answering the questions behind a 4x4 grid of squares.
Each correct answer uncovers a piece of a hidden picture. Any team may guess
the obstacle (the word the picture shows) instead of answering a square.

Start with list_question_sets and create_session, then use square_prompt and
attempt_square. Call game_instructions for the full rules.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// sessionTool describes a tool that acts on one session
func sessionTool(name, description string, extra map[string]interface{}, required ...string) mcp.Tool {
	props := map[string]interface{}{
		"session_id": stringProp("Session ID"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   append([]string{"session_id"}, required...),
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Start a new game on a question set",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question_set_id": stringProp("Numeric question set ID, e.g. 001"),
			},
			Required: []string{"question_set_id"},
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

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session", nil), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(sessionTool("game_state", "Get the board, scores and turns of a game", nil), c.handleGameState)

	c.mcpServer.AddTool(sessionTool("square_prompt", "Show the question behind a square for the current team",
		map[string]interface{}{"square": intProp("Square number 1-16")}, "square"), c.handleSquarePrompt)

	c.mcpServer.AddTool(sessionTool("attempt_square", "Answer the question behind a square for the current team",
		map[string]interface{}{
			"square": intProp("Square number 1-16"),
			"answer": stringProp("Answer text; empty counts as wrong"),
		}, "square", "answer"), c.handleAttemptSquare)

	c.mcpServer.AddTool(sessionTool("guess_obstacle", "Guess the obstacle word for the current team",
		map[string]interface{}{"guess": stringProp("The obstacle guess")}, "guess"), c.handleGuessObstacle)

	c.mcpServer.AddTool(sessionTool("final_guess", "Answer the final guess once every square is open",
		map[string]interface{}{"guess": stringProp("The final guess")}, "guess"), c.handleFinalGuess)

	c.mcpServer.AddTool(sessionTool("reset_game", "Start the session's game over", nil), c.handleReset)

	c.mcpServer.AddTool(sessionTool("action_history", "Get the action history of a session",
		map[string]interface{}{
			"page":  intProp("Page number"),
			"limit": intProp("Items per page"),
		}), c.handleActionHistory)

	// Catalog
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_question_sets",
		Description: "List the question sets that can be played",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListQuestionSets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_results",
		Description: "List recently finished games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": intProp("Maximum number of results"),
			},
		},
	}, c.handleListResults)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers single JSON-RPC messages posted to the /mcp endpoint
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications have no reply
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// intArg accepts JSON numbers and numeric strings
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	questionSetID, _ := args["question_set_id"].(string)

	var session service.SessionInfo
	err := c.apiCall(ctx, "POST", "/api/sessions", map[string]string{"question_set_id": questionSetID}, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nQuestion set: %s\n\n%s",
		session.ID, session.QuestionSetID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := ""
		if s.GameState != nil {
			phase = string(s.GameState.Phase)
		}
		fmt.Fprintf(&result, "- %s (Question set: %s, Phase: %s, Created: %s)\n",
			s.ID, s.QuestionSetID, phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSquarePrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	square, ok := intArg(args, "square")
	if !ok {
		return mcp.NewToolResultError("square is required"), nil
	}
	path, err := sessionPath(args, fmt.Sprintf("/squares/%d", square))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var prompt engine.InputRequest
	if err := c.apiCall(ctx, "GET", path, nil, &prompt); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPrompt(&prompt)), nil
}

func (c *Client) handleAttemptSquare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	square, ok := intArg(args, "square")
	if !ok {
		return mcp.NewToolResultError("square is required"), nil
	}
	answer, _ := args["answer"].(string)
	path, err := sessionPath(args, "/attempt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp service.ActionResponse
	body := map[string]interface{}{"square": square, "answer": answer}
	if err := c.apiCall(ctx, "POST", path, body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResponse(&resp)), nil
}

func (c *Client) handleGuessObstacle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.postGuess(ctx, request, "/obstacle")
}

func (c *Client) handleFinalGuess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.postGuess(ctx, request, "/final-guess")
}

func (c *Client) postGuess(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	guess, _ := args["guess"].(string)
	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp service.ActionResponse
	if err := c.apiCall(ctx, "POST", path, map[string]string{"guess": guess}, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResponse(&resp)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	suffix := "/history"
	if len(query) > 0 {
		suffix += "?" + query.Encode()
	}

	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListQuestionSets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sets []service.QuestionSetInfo
	if err := c.apiCall(ctx, "GET", "/api/question-sets", nil, &sets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(sets) == 0 {
		return mcp.NewToolResultText("No question sets available"), nil
	}

	var result strings.Builder
	result.WriteString("Available Question Sets:\n\n")
	for _, set := range sets {
		name := set.Name
		if name == "" {
			name = set.Filename
		}
		fmt.Fprintf(&result, "• %s - %s\n", set.ID, name)
		if set.Description != "" {
			fmt.Fprintf(&result, "  %s\n", set.Description)
		}
		fmt.Fprintf(&result, "  Questions: %d, Hints: %d\n\n", set.Questions, set.HintCount)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/results"
	if limit, ok := intArg(arguments(request), "limit"); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count   int               `json:"count"`
		Results []*results.Record `json:"results"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResults(response.Results)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

var instructions = fmt.Sprintf(`Obstacle Course - Complete Instructions

OBJECTIVE:
A picture hides an obstacle word. It is cut into a 4x4 grid of numbered
squares, each covering a question. Four teams race to name the obstacle.

BOARD (square numbers spiral inward):
   1  2  3  4
  12 13 14  5
  11 16 15  6
  10  9  8  7

TURNS:
• Teams play in order Team 1 → Team 4, %d turns each.
• A turn is answering one hidden square or guessing the obstacle.
• Picking a square that is already open does not use the turn.

SQUARES:
• A correct answer opens the square, shows its part of the picture and
  scores %d points (squares 13-16 score %d).
• A wrong answer also opens the square but it stays black.
• Squares 13-16 reveal a hint when opened, right or wrong.

OBSTACLE:
• Worth max(%d, %d - %d × correctly answered squares).
• A correct guess ends the game immediately.
• A wrong guess passes the turn.

FINAL GUESS:
• When all 16 squares are open the team to play gets one last guess,
  shown with the final hint. It is worth %d points and ends the game.

END:
• The game also ends when every team has used its turns.
• The highest score wins; ties share the win.

Answers ignore case and surrounding spaces. An empty answer is wrong.

TOOLS:
list_question_sets → create_session → square_prompt → attempt_square,
guess_obstacle, final_guess, game_state, action_history, reset_game.`,
	engine.TurnsPerTeam, engine.RegularSquarePoints, engine.HintSquarePoints,
	engine.ObstacleMinPoints, engine.ObstacleBasePoints, engine.ObstaclePenalty,
	engine.FinalGuessPoints)

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nQuestion set: %s\nCreated: %s\n\n%s",
		session.ID, session.QuestionSetID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// formatBoard draws the grid: numbers for hidden squares, ✓ and ✗ for open ones
func formatBoard(state *engine.GameState) string {
	var b strings.Builder
	for row := 0; row < engine.GridSize; row++ {
		for col := 0; col < engine.GridSize; col++ {
			cell := fmt.Sprintf("%2d", engine.GridLayout[row][col])
			if state.Revealed[row][col] {
				if state.Correct[row][col] {
					cell = " ✓"
				} else {
					cell = " ✗"
				}
			}
			b.WriteString(cell)
			if col < engine.GridSize-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	result.WriteString(formatBoard(state))
	result.WriteString("\n")

	for team := 0; team < engine.NumTeams; team++ {
		marker := "  "
		if team == state.CurrentTeam && state.Phase != engine.PhaseFinished {
			marker = "▶ "
		}
		fmt.Fprintf(&result, "%s%s: %d pts, %d/%d turns used\n",
			marker, engine.TeamName(team), state.Scores[team], state.TurnsTaken[team], engine.TurnsPerTeam)
	}

	if len(state.Hints) > 0 {
		result.WriteString("\nHints:\n")
		for square := engine.FirstHintSquare; square <= engine.SquareCount; square++ {
			if hint, ok := state.Hints[square]; ok {
				fmt.Fprintf(&result, "  %d: %s\n", square, hint)
			}
		}
	}

	fmt.Fprintf(&result, "\nPhase: %s", state.Phase)
	if state.Phase == engine.PhaseFinalGuess && state.FinalHint != "" {
		fmt.Fprintf(&result, "\nFinal hint: %s", state.FinalHint)
	}
	if state.Phase == engine.PhaseFinished {
		fmt.Fprintf(&result, "\nGAME OVER (%s)", state.Outcome)
		names := make([]string, 0, engine.NumTeams)
		for _, team := range engine.Leaders(state.Scores) {
			names = append(names, engine.TeamName(team))
		}
		fmt.Fprintf(&result, "\nWinner: %s", strings.Join(names, ", "))
	}
	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatPrompt(prompt *engine.InputRequest) string {
	var result strings.Builder
	if prompt.Square > 0 {
		fmt.Fprintf(&result, "%s, square %d:\n", engine.TeamName(prompt.Team), prompt.Square)
	} else {
		fmt.Fprintf(&result, "%s:\n", engine.TeamName(prompt.Team))
	}
	result.WriteString(prompt.Prompt)
	if prompt.Hint != "" {
		fmt.Fprintf(&result, "\nHint: %s", prompt.Hint)
	}
	return result.String()
}

func formatActionResponse(resp *service.ActionResponse) string {
	var result strings.Builder

	r := resp.Result
	if !r.Applied {
		fmt.Fprintf(&result, "No action taken: %s\n\n", r.Message)
	} else {
		status := "WRONG"
		if r.Correct {
			status = "CORRECT"
		}
		fmt.Fprintf(&result, "%s %s", engine.TeamName(r.Team), status)
		if r.Points > 0 {
			fmt.Fprintf(&result, " (+%d)", r.Points)
		}
		result.WriteString("\n")
		if r.Message != "" {
			fmt.Fprintf(&result, "%s\n", r.Message)
		}
		if r.RevealedHint != "" {
			fmt.Fprintf(&result, "Hint revealed: %s\n", r.RevealedHint)
		}
		result.WriteString("\n")
	}

	result.WriteString(formatGameState(resp.GameState))
	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Action History (Page %d/%d, Total: %d):\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, a := range history.Actions {
		status := "✗"
		if a.Correct {
			status = "✓"
		}
		target := string(a.Kind)
		if a.Square > 0 {
			target = fmt.Sprintf("square %d", a.Square)
		}
		fmt.Fprintf(&result, "#%d %s %s %q %s +%d\n",
			a.Number, engine.TeamName(a.Team), target, a.Submitted, status, a.Points)
	}

	return result.String()
}

func formatResults(records []*results.Record) string {
	if len(records) == 0 {
		return "No finished games yet"
	}

	var result strings.Builder
	result.WriteString("Finished Games:\n\n")
	for _, r := range records {
		fmt.Fprintf(&result, "• %s  set %s  session %s  %s\n",
			r.FinishedAt.Format("2006-01-02 15:04"), r.QuestionSetID, r.SessionID, r.Outcome)
		fmt.Fprintf(&result, "  Scores: %d / %d / %d / %d\n",
			r.Scores[0], r.Scores[1], r.Scores[2], r.Scores[3])
	}
	return result.String()
}
