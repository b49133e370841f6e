package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/results"
	"github.com/wricardo/obstacle-course/game/tiles"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultResultsLimit = 50
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	bank     QuestionBank
	store    ResultStore
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. store may be nil when
// finished games should not be archived.
func NewGameService(sessions SessionManager, bank QuestionBank, store ResultStore, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		bank:     bank,
		store:    store,
		logger:   logger,
	}
}

// CreateSession loads a question set and starts a new game on it
func (s *gameServiceImpl) CreateSession(ctx context.Context, questionSetID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionSetID = strings.TrimSpace(questionSetID)
	if questionSetID == "" {
		return nil, fmt.Errorf("%w: question_set_id is required", ErrInvalidInput)
	}

	set, err := s.bank.LoadQuestionSet(questionSetID)
	if err != nil {
		if errors.Is(err, ErrQuestionSetNotFound) {
			if available := s.availableIDs(); len(available) > 0 {
				return nil, fmt.Errorf("question set '%s' not found, available: %v: %w", questionSetID, available, err)
			}
		}
		return nil, fmt.Errorf("failed to load question set %s: %w", questionSetID, err)
	}

	tileSet, err := s.bank.LoadTiles(questionSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image for question set %s: %w", questionSetID, err)
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", set, tileSet)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("question_set_id", set.ID))

	return s.sessionInfo(sess), nil
}

func (s *gameServiceImpl) availableIDs() []string {
	infos, err := s.bank.ListQuestionSets()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return ids
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// GetPrompt returns the question for a square the current team may attempt
func (s *gameServiceImpl) GetPrompt(ctx context.Context, sessionID string, square int) (*engine.InputRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if square < 1 || square > engine.SquareCount {
		return nil, fmt.Errorf("%w: square must be between 1 and %d", ErrInvalidInput, engine.SquareCount)
	}

	req, ok := sess.Engine.SquarePrompt(square)
	if !ok {
		return nil, fmt.Errorf("%w: square %d", ErrSquareUnavailable, square)
	}
	return req, nil
}

// Attempt answers a square for the current team
func (s *gameServiceImpl) Attempt(ctx context.Context, sessionID string, square int, answer string) (*ActionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if square < 1 || square > engine.SquareCount {
		return nil, fmt.Errorf("%w: square must be between 1 and %d", ErrInvalidInput, engine.SquareCount)
	}

	prevPhase := sess.Engine.GetState().Phase
	result := sess.Engine.Attempt(square, answer)
	return s.finishAction(ctx, sess, prevPhase, result), nil
}

// GuessObstacle submits an obstacle guess for the current team
func (s *gameServiceImpl) GuessObstacle(ctx context.Context, sessionID, guess string) (*ActionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	prevPhase := sess.Engine.GetState().Phase
	result, err := sess.Engine.GuessObstacle(guess)
	if err != nil {
		return nil, fmt.Errorf("obstacle guess rejected: %w", err)
	}
	return s.finishAction(ctx, sess, prevPhase, result), nil
}

// SubmitFinalGuess answers the final guess once every square is open
func (s *gameServiceImpl) SubmitFinalGuess(ctx context.Context, sessionID, guess string) (*ActionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	prevPhase := sess.Engine.GetState().Phase
	result, err := sess.Engine.SubmitFinalGuess(guess)
	if err != nil {
		return nil, fmt.Errorf("final guess rejected: %w", err)
	}
	return s.finishAction(ctx, sess, prevPhase, result), nil
}

// Reset starts a new game on the session's question set
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset().Clone()
	sess.Recorded = false
	s.logger.Info("game reset", zap.String("session_id", sess.ID))
	return state, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetHistory returns the action history with pagination
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	actions := []engine.ActionEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				actions = append(actions, history[i])
			}
		} else {
			actions = append(actions, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// GetTile renders the tile at a grid position. Hidden squares are refused and
// incorrectly answered squares get the blank tile.
func (s *gameServiceImpl) GetTile(ctx context.Context, sessionID string, row, col int) (*TileImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	square, ok := engine.SquareAt(row, col)
	if !ok {
		return nil, fmt.Errorf("%w: position %d,%d is off the grid", ErrInvalidInput, row, col)
	}

	status := sess.Engine.SquareStatus(square)
	tile := &TileImage{Row: row, Col: col, Square: square, Status: status}

	if sess.Tiles == nil {
		return nil, fmt.Errorf("%w: session has no image", ErrTileHidden)
	}

	img := sess.Tiles.Blank
	switch status {
	case engine.SquareHidden:
		return nil, fmt.Errorf("%w: square %d", ErrTileHidden, square)
	case engine.SquareCorrect:
		img, _ = sess.Tiles.Tile(engine.Position{Row: row, Col: col})
	}

	data, err := tiles.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}
	tile.PNG = data
	return tile, nil
}

// ListQuestionSets returns summaries of all loadable question sets
func (s *gameServiceImpl) ListQuestionSets(ctx context.Context) ([]*QuestionSetInfo, error) {
	return s.bank.ListQuestionSets()
}

// GetQuestionSet returns the summary of one question set
func (s *gameServiceImpl) GetQuestionSet(ctx context.Context, questionSetID string) (*QuestionSetInfo, error) {
	infos, err := s.bank.ListQuestionSets()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID == questionSetID {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrQuestionSetNotFound, questionSetID)
}

// SaveQuestionSet validates and stores a question set
func (s *gameServiceImpl) SaveQuestionSet(ctx context.Context, questionSetID string, set *engine.QuestionSet) error {
	if err := s.bank.SaveQuestionSet(questionSetID, set); err != nil {
		return err
	}
	s.logger.Info("question set saved", zap.String("question_set_id", questionSetID))
	return nil
}

// ListResults returns the most recent archived games
func (s *gameServiceImpl) ListResults(ctx context.Context, limit int) ([]*results.Record, error) {
	if s.store == nil {
		return nil, ErrResultsDisabled
	}
	if limit <= 0 {
		limit = defaultResultsLimit
	}
	return s.store.List(ctx, limit)
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// finishAction builds the response for an engine action and archives the
// game when it just ended.
func (s *gameServiceImpl) finishAction(ctx context.Context, sess *Session, prevPhase engine.Phase, result engine.ActionResult) *ActionResponse {
	state := sess.Engine.GetState().Clone()
	resp := &ActionResponse{
		Result:    result,
		GameState: state,
		Board:     buildBoard(sess.Engine),
		Events:    extractEvents(result, prevPhase, state),
	}

	if result.Applied {
		s.logger.Debug("action applied",
			zap.String("session_id", sess.ID),
			zap.String("kind", string(result.Kind)),
			zap.Int("team", result.Team),
			zap.Int("square", result.Square),
			zap.Bool("correct", result.Correct),
			zap.Int("points", result.Points))
	}

	if sess.Engine.IsGameOver() && !sess.Recorded {
		s.recordResult(ctx, sess)
	}
	return resp
}

func (s *gameServiceImpl) recordResult(ctx context.Context, sess *Session) {
	if s.store == nil {
		return
	}
	state := sess.Engine.GetState()
	record := &results.Record{
		SessionID:       sess.ID,
		QuestionSetID:   sess.QuestionSet.ID,
		QuestionSetName: sess.QuestionSet.Name,
		Outcome:         string(state.Outcome),
		Scores:          state.Scores,
		Leaders:         sess.Engine.Leaders(),
		CorrectSquares:  sess.Engine.CorrectCount(),
		RevealedSquares: sess.Engine.RevealedCount(),
		Actions:         state.TotalActions,
		StartedAt:       sess.CreatedAt,
		FinishedAt:      time.Now(),
	}
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Warn("failed to archive game result",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		return
	}
	sess.Recorded = true
	s.logger.Info("game finished",
		zap.String("session_id", sess.ID),
		zap.String("result_id", record.ID),
		zap.String("outcome", record.Outcome),
		zap.Ints("leaders", record.Leaders))
}

// sessionInfo snapshots a session. Caller holds s.mu.
func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	lastAccessed, err := s.sessions.LastAccessed(sess.ID)
	if err != nil {
		lastAccessed = sess.CreatedAt
	}
	return &SessionInfo{
		ID:              sess.ID,
		QuestionSetID:   sess.QuestionSet.ID,
		QuestionSetName: sess.QuestionSet.Name,
		CreatedAt:       sess.CreatedAt,
		LastAccessedAt:  lastAccessed,
		GameState:       sess.Engine.GetState().Clone(),
		Board:           buildBoard(sess.Engine),
	}
}

func buildBoard(eng *engine.GameEngine) []SquareView {
	state := eng.GetState()
	board := make([]SquareView, 0, engine.SquareCount)
	for square := 1; square <= engine.SquareCount; square++ {
		pos, _ := engine.SquarePosition(square)
		board = append(board, SquareView{
			Square: square,
			Row:    pos.Row,
			Col:    pos.Col,
			Status: eng.SquareStatus(square),
			Points: engine.SquarePoints(square),
			Hint:   state.Hints[square],
		})
	}
	return board
}

func extractEvents(result engine.ActionResult, prevPhase engine.Phase, state *engine.GameState) []GameEvent {
	if !result.Applied {
		return nil
	}

	now := time.Now()
	event := func(kind, msg string) GameEvent {
		return GameEvent{Type: kind, Message: msg, Timestamp: now, Team: result.Team, Square: result.Square}
	}

	var events []GameEvent
	switch result.Kind {
	case engine.ActionAttempt:
		if result.Correct {
			events = append(events, event(EventSquareCorrect, result.Message))
		} else {
			events = append(events, event(EventSquareIncorrect, result.Message))
		}
		if result.RevealedHint != "" {
			events = append(events, event(EventHintRevealed, fmt.Sprintf("Hint %d: %s", result.Square, result.RevealedHint)))
		}
	case engine.ActionObstacleGuess:
		if result.Correct {
			events = append(events, event(EventObstacleSolved, result.Message))
		} else {
			events = append(events, event(EventObstacleMissed, result.Message))
		}
	}

	if prevPhase == engine.PhasePlaying && state.Phase == engine.PhaseFinalGuess {
		events = append(events, event(EventFinalGuessStarted, "All squares are open. Final hint: "+state.FinalHint))
	}
	if state.Phase == engine.PhaseFinished {
		events = append(events, event(EventGameOver, fmt.Sprintf("Game over (%s)", state.Outcome)))
	}
	return events
}
