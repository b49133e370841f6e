package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/obstacle-course/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, engine.WebSocketBufferSize),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func testState() *engine.GameState {
	state := &engine.GameState{
		QuestionSetID: "001",
		CurrentTeam:   2,
		Phase:         engine.PhasePlaying,
	}
	state.Revealed[0][0] = true
	state.Correct[0][0] = true
	state.Scores[0] = 10
	state.TurnsTaken[0] = 1
	return state
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
	if hub.logger == nil {
		t.Error("Hub logger is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("test-session") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// Second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(nil)
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	sessionID := "broadcast-test"
	client := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other-session")
	hub.register <- client
	hub.register <- other

	hub.BroadcastToSession(sessionID, testState())

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != sessionID {
			t.Errorf("Expected sessionID %s, got %s", sessionID, message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %s", EventStateUpdate, message.Event)
		}
		if message.GameState == nil || message.GameState.Scores[0] != 10 || !message.GameState.Correct[0][0] {
			t.Error("GameState not correctly transmitted")
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != "custom-event" {
			t.Errorf("Expected event 'custom-event', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(nil)

	// Without Run nothing drains the queue; extra messages must not block
	for i := 0; i < engine.WebSocketBufferSize+10; i++ {
		hub.BroadcastEvent("full", "tick", i)
	}

	if len(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected queue of %d, got %d", engine.WebSocketBufferSize, len(hub.broadcast))
	}
}

func TestHubSlowClientIsDropped(t *testing.T) {
	hub := NewHub(nil)
	client := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(client)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: "two"})

	if hub.ClientCount("slow") != 0 {
		t.Error("Slow client should have been removed")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "stop")
	hub.registerClient(client)

	finished := make(chan struct{})
	go func() {
		hub.Run()
		close(finished)
	}()

	hub.Stop()
	hub.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if hub.ClientCount("stop") != 0 {
		t.Error("Clients should be removed on stop")
	}
}

func newWSServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID)
	}))
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })

	hub.BroadcastToSession("msg-test", testState())
	hub.BroadcastEvent("msg-test", "square_correct", map[string]int{"square": 1})

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var first, second Message
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read second WebSocket message: %v", err)
	}
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatalf("Each frame should hold one JSON message: %v", err)
	}

	if first.SessionID != "msg-test" || first.Event != EventStateUpdate {
		t.Errorf("Unexpected first message: %+v", first)
	}
	if first.GameState == nil || first.GameState.CurrentTeam != 2 {
		t.Error("GameState not correctly received")
	}
	if second.Event != "square_correct" {
		t.Errorf("Expected square_correct event, got %s", second.Event)
	}
}
