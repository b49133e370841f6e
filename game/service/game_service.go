package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/results"
	"github.com/wricardo/obstacle-course/game/tiles"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrSquareUnavailable   = errors.New("square cannot be attempted")
	ErrTileHidden          = errors.New("tile has not been revealed")
	ErrResultsDisabled     = errors.New("results archive is disabled")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, questionSetID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	GetPrompt(ctx context.Context, sessionID string, square int) (*engine.InputRequest, error)
	Attempt(ctx context.Context, sessionID string, square int, answer string) (*ActionResponse, error)
	GuessObstacle(ctx context.Context, sessionID, guess string) (*ActionResponse, error)
	SubmitFinalGuess(ctx context.Context, sessionID, guess string) (*ActionResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetTile(ctx context.Context, sessionID string, row, col int) (*TileImage, error)

	// Question sets
	ListQuestionSets(ctx context.Context) ([]*QuestionSetInfo, error)
	GetQuestionSet(ctx context.Context, questionSetID string) (*QuestionSetInfo, error)
	SaveQuestionSet(ctx context.Context, questionSetID string, set *engine.QuestionSet) error

	// Results
	ListResults(ctx context.Context, limit int) ([]*results.Record, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, set *engine.QuestionSet, tileSet *tiles.Set) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	LastAccessed(id string) (time.Time, error)
}

// QuestionBank loads question sets and their pictures
type QuestionBank interface {
	LoadQuestionSet(id string) (*engine.QuestionSet, error)
	LoadTiles(id string) (*tiles.Set, error)
	ListQuestionSets() ([]*QuestionSetInfo, error)
	SaveQuestionSet(id string, set *engine.QuestionSet) error
}

// ResultStore archives finished games
type ResultStore interface {
	Save(ctx context.Context, record *results.Record) error
	List(ctx context.Context, limit int) ([]*results.Record, error)
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	QuestionSet    *engine.QuestionSet
	Tiles          *tiles.Set
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// Recorded is set once the finished game has been archived
	Recorded bool
}
