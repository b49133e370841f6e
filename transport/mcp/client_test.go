package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/results"
	"github.com/wricardo/obstacle-course/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	state := &engine.GameState{
		QuestionSetID: "001",
		CurrentTeam:   1,
		Phase:         engine.PhasePlaying,
		Hints:         map[int]string{13: "It is tall"},
	}
	state.Revealed[0][0] = true
	state.Correct[0][0] = true
	state.Revealed[1][1] = true
	state.Scores[0] = 10
	state.TurnsTaken[0] = 1
	return state
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_ListsTools(t *testing.T) {
	client := NewClient("http://localhost:8080")

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	resp := client.GetMCPServer().HandleMessage(context.Background(), msg)

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	for _, name := range []string{
		"create_session", "list_sessions", "get_session", "game_state",
		"square_prompt", "attempt_square", "guess_obstacle", "final_guess",
		"reset_game", "action_history", "list_question_sets", "list_results",
		"game_instructions",
	} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("Tool %s not registered", name)
		}
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "no turns left"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/plain", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status code error, got %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/json", nil, nil)
	if err == nil || err.Error() != "no turns left" {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["question_set_id"] != "001" {
			t.Errorf("Expected question_set_id 001, got %q", body["question_set_id"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:            "ab12",
			QuestionSetID: "001",
			GameState:     &engine.GameState{Phase: engine.PhasePlaying},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(),
		callTool("create_session", map[string]interface{}{"question_set_id": "001"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "ab12") || !strings.Contains(text, "Question set: 001") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestClient_attemptSquare(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions/ab12/attempt" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(service.ActionResponse{
			Result: engine.ActionResult{
				Applied: true, Kind: engine.ActionAttempt, Team: 0, Square: 1,
				Correct: true, Points: 10, Message: "Correct!",
			},
			GameState: sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleAttemptSquare(context.Background(), callTool("attempt_square", map[string]interface{}{
		"session_id": "ab12",
		"square":     float64(1),
		"answer":     "Paris",
	}))
	if err != nil {
		t.Fatalf("attempt failed: %v", err)
	}

	if gotBody["answer"] != "Paris" || gotBody["square"] != float64(1) {
		t.Errorf("Unexpected request body %v", gotBody)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Team 1 CORRECT (+10)") {
		t.Errorf("Expected correct result line, got: %s", text)
	}
}

func TestClient_missingArguments(t *testing.T) {
	client := NewClient("http://localhost:1")
	ctx := context.Background()

	result, _ := client.handleGameState(ctx, callTool("game_state", map[string]interface{}{}))
	if !result.IsError || !strings.Contains(resultText(t, result), "session_id") {
		t.Error("Expected session_id error")
	}

	result, _ = client.handleSquarePrompt(ctx, callTool("square_prompt", map[string]interface{}{"session_id": "ab12"}))
	if !result.IsError {
		t.Error("Expected error without square")
	}
}

func TestClient_guessRoutes(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(service.ActionResponse{GameState: sampleState()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	args := map[string]interface{}{"session_id": "ab12", "guess": "Lighthouse"}

	client.handleGuessObstacle(context.Background(), callTool("guess_obstacle", args))
	client.handleFinalGuess(context.Background(), callTool("final_guess", args))

	if len(paths) != 2 || paths[0] != "/api/sessions/ab12/obstacle" || paths[1] != "/api/sessions/ab12/final-guess" {
		t.Errorf("Unexpected paths %v", paths)
	}
}

func TestClient_actionHistoryQuery(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Actions: []engine.ActionEntry{
				{Number: 1, Kind: engine.ActionAttempt, Team: 0, Square: 3, Submitted: "x", Correct: false},
			},
			TotalActions: 1, Page: 2, TotalPages: 2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, _ := client.handleActionHistory(context.Background(), callTool("action_history", map[string]interface{}{
		"session_id": "ab12", "page": float64(2), "limit": float64(5),
	}))

	if query != "limit=5&page=2" {
		t.Errorf("Unexpected query %q", query)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Page 2/2") || !strings.Contains(text, "square 3") {
		t.Errorf("Unexpected history: %s", text)
	}
}

func TestFormatBoard(t *testing.T) {
	board := formatBoard(sampleState())
	lines := strings.Split(strings.TrimRight(board, "\n"), "\n")

	if len(lines) != engine.GridSize {
		t.Fatalf("Expected %d lines, got %d", engine.GridSize, len(lines))
	}
	if !strings.HasPrefix(lines[0], " ✓") {
		t.Errorf("Expected square 1 marked correct, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "✗") || !strings.HasPrefix(lines[1], "12") {
		t.Errorf("Expected square 13 marked wrong, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "10") || !strings.Contains(lines[3], " 7") {
		t.Errorf("Expected bottom row numbers, got %q", lines[3])
	}
}

func TestFormatGameState(t *testing.T) {
	text := formatGameState(sampleState())

	for _, want := range []string{"▶ Team 2", "Team 1: 10 pts, 1/4 turns used", "13: It is tall", "Phase: playing"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in state, got: %s", want, text)
		}
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatGameState_Finished(t *testing.T) {
	state := sampleState()
	state.Phase = engine.PhaseFinished
	state.Outcome = engine.OutcomeObstacleSolved
	state.Scores = [engine.NumTeams]int{10, 80, 0, 80}

	text := formatGameState(state)
	if !strings.Contains(text, "GAME OVER (obstacle_solved)") {
		t.Errorf("Expected game over line, got: %s", text)
	}
	if !strings.Contains(text, "Winner: Team 2, Team 4") {
		t.Errorf("Expected shared win, got: %s", text)
	}
	if strings.Contains(text, "▶") {
		t.Error("No team should be marked to play after the game ends")
	}
}

func TestFormatActionResponse_NotApplied(t *testing.T) {
	text := formatActionResponse(&service.ActionResponse{
		Result:    engine.ActionResult{Applied: false, Message: "Square 1 is already open"},
		GameState: sampleState(),
	})
	if !strings.HasPrefix(text, "No action taken: Square 1 is already open") {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestFormatResults(t *testing.T) {
	if formatResults(nil) != "No finished games yet" {
		t.Error("Expected placeholder for no results")
	}

	text := formatResults([]*results.Record{{
		SessionID:     "ab12",
		QuestionSetID: "001",
		Outcome:       string(engine.OutcomeTurnsExhausted),
		Scores:        [engine.NumTeams]int{10, 20, 30, 40},
		FinishedAt:    time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}})
	if !strings.Contains(text, "2026-01-02 03:04") || !strings.Contains(text, "10 / 20 / 30 / 40") {
		t.Errorf("Unexpected results text: %s", text)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"Obstacle Course - Complete Instructions",
		"12 13 14  5",
		"4 turns each",
		"max(10, 90 - 5",
		"worth 5 points",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}

func TestClient_ServeHTTP(t *testing.T) {
	client := NewClient("http://localhost:8080")

	w := httptest.NewRecorder()
	client.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	body := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"game_instructions","arguments":{}}}`)
	w = httptest.NewRecorder()
	client.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON response, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Complete Instructions") {
		t.Errorf("Expected instructions in response, got %s", w.Body.String())
	}
}
