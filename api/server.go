package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/obstacle-course/game/config"
	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/service"
	"github.com/wricardo/obstacle-course/transport/websocket"
)

// maxBodyBytes bounds request bodies; question sets are the largest payload
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub may be nil when live updates are off.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger.Named("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/squares/{square}", s.handleGetPrompt).Methods("GET")
	api.HandleFunc("/sessions/{id}/attempt", s.handleAttempt).Methods("POST")
	api.HandleFunc("/sessions/{id}/obstacle", s.handleGuessObstacle).Methods("POST")
	api.HandleFunc("/sessions/{id}/final-guess", s.handleFinalGuess).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/tiles/{row}/{col}", s.handleGetTile).Methods("GET")

	// Question sets
	api.HandleFunc("/question-sets", s.handleListQuestionSets).Methods("GET")
	api.HandleFunc("/question-sets", s.handleSaveQuestionSet).Methods("POST")
	api.HandleFunc("/question-sets/{id}", s.handleGetQuestionSet).Methods("GET")

	// Results archive
	api.HandleFunc("/results", s.handleListResults).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Router exposes the underlying router so callers can mount extra handlers
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and engine errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrQuestionSetNotFound),
		errors.Is(err, config.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidQuestionSet),
		errors.Is(err, config.ErrInvalidQuestionSetID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSquareUnavailable),
		errors.Is(err, engine.ErrNoTurnsLeft),
		errors.Is(err, engine.ErrGameOver),
		errors.Is(err, engine.ErrFinalGuessPending),
		errors.Is(err, engine.ErrNoFinalGuess):
		return http.StatusConflict
	case errors.Is(err, service.ErrTileHidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrResultsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) broadcast(sessionID string, resp *service.ActionResponse) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, resp.GameState)
	for _, ev := range resp.Events {
		s.hub.BroadcastEvent(sessionID, ev.Type, ev)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionSetID string `json:"question_set_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.QuestionSetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < total {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	square, err := strconv.Atoi(vars["square"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "square must be a number")
		return
	}

	prompt, err := s.service.GetPrompt(r.Context(), vars["id"], square)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prompt)
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Square int    `json:"square"`
		Answer string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.Attempt(r.Context(), sessionID, req.Square, req.Answer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)

	s.logger.Info("attempt",
		zap.String("session_id", sessionID),
		zap.Int("team", result.Result.Team),
		zap.Int("square", req.Square),
		zap.Bool("applied", result.Result.Applied),
		zap.Bool("correct", result.Result.Correct),
		zap.Int("points", result.Result.Points))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGuessObstacle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Guess string `json:"guess"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.GuessObstacle(r.Context(), sessionID, req.Guess)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)

	s.logger.Info("obstacle guess",
		zap.String("session_id", sessionID),
		zap.Int("team", result.Result.Team),
		zap.Bool("correct", result.Result.Correct),
		zap.Int("points", result.Result.Points))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFinalGuess(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Guess string `json:"guess"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.SubmitFinalGuess(r.Context(), sessionID, req.Guess)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)

	s.logger.Info("final guess",
		zap.String("session_id", sessionID),
		zap.Int("team", result.Result.Team),
		zap.Bool("correct", result.Result.Correct))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
		s.hub.BroadcastEvent(sessionID, service.EventReset, nil)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, errRow := strconv.Atoi(vars["row"])
	col, errCol := strconv.Atoi(vars["col"])
	if errRow != nil || errCol != nil {
		respondError(w, http.StatusBadRequest, "row and col must be numbers")
		return
	}

	tile, err := s.service.GetTile(r.Context(), vars["id"], row, col)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(tile.PNG)))
	w.Header().Set("X-Square", strconv.Itoa(tile.Square))
	w.Header().Set("X-Square-Status", string(tile.Status))
	w.WriteHeader(http.StatusOK)
	w.Write(tile.PNG)
}

// Question Set Handlers

func (s *Server) handleListQuestionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.service.ListQuestionSets(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sets)
}

func (s *Server) handleGetQuestionSet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(mux.Vars(r)["id"], ".json")
	id = strings.TrimPrefix(id, "questions_")

	info, err := s.service.GetQuestionSet(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSaveQuestionSet(w http.ResponseWriter, r *http.Request) {
	var set engine.QuestionSet
	if !decodeBody(w, r, &set) {
		return
	}

	if set.ID == "" {
		respondError(w, http.StatusBadRequest, "Question set id is required")
		return
	}

	if err := s.service.SaveQuestionSet(r.Context(), set.ID, &set); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":         "Question set saved successfully",
		"question_set_id": set.ID,
	})
}

// Results Handler

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	records, err := s.service.ListResults(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"results": records,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
