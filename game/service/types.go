package service

import (
	"time"

	"github.com/wricardo/obstacle-course/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID              string            `json:"id"`
	QuestionSetID   string            `json:"question_set_id"`
	QuestionSetName string            `json:"question_set_name,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	LastAccessedAt  time.Time         `json:"last_accessed_at"`
	GameState       *engine.GameState `json:"game_state"`
	Board           []SquareView      `json:"board"`
}

// SquareView is the public view of one square, ordered by square number
type SquareView struct {
	Square int                 `json:"square"`
	Row    int                 `json:"row"`
	Col    int                 `json:"col"`
	Status engine.SquareStatus `json:"status"`
	Points int                 `json:"points"`
	Hint   string              `json:"hint,omitempty"`
}

// ActionResponse contains the result of a player action
type ActionResponse struct {
	Result    engine.ActionResult `json:"result"`
	GameState *engine.GameState   `json:"game_state"`
	Board     []SquareView        `json:"board"`
	Events    []GameEvent         `json:"events,omitempty"`
}

// Event types emitted by player actions
const (
	EventSquareCorrect     = "square_correct"
	EventSquareIncorrect   = "square_incorrect"
	EventHintRevealed      = "hint_revealed"
	EventObstacleSolved    = "obstacle_solved"
	EventObstacleMissed    = "obstacle_missed"
	EventFinalGuessStarted = "final_guess_started"
	EventGameOver          = "game_over"
	EventReset             = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Team      int       `json:"team"`
	Square    int       `json:"square,omitempty"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.ActionEntry `json:"actions"`
	TotalActions int                  `json:"total_actions"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalPages   int                  `json:"total_pages"`
	HasNext      bool                 `json:"has_next"`
	HasPrevious  bool                 `json:"has_previous"`
}

// TileImage is a rendered tile for one grid position
type TileImage struct {
	Row    int                 `json:"row"`
	Col    int                 `json:"col"`
	Square int                 `json:"square"`
	Status engine.SquareStatus `json:"status"`
	PNG    []byte              `json:"-"`
}

// QuestionSetInfo summarizes a question set without exposing answers
type QuestionSetInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Questions   int    `json:"questions"`
	HintCount   int    `json:"hint_count"`
	HasImage    bool   `json:"has_image"`
}
