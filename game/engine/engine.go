package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoTurnsLeft       = errors.New("current team has no turns left")
	ErrGameOver          = errors.New("game is over")
	ErrFinalGuessPending = errors.New("final guess phase in progress")
	ErrNoFinalGuess      = errors.New("final guess is not open")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetScores() [NumTeams]int
	CurrentTeam() int
	TurnsRemaining(team int) int

	// Player actions
	SquarePrompt(square int) (*InputRequest, bool)
	Attempt(square int, answer string) ActionResult
	ObstaclePrompt() (*InputRequest, error)
	GuessObstacle(guess string) (ActionResult, error)
	SubmitFinalGuess(guess string) (ActionResult, error)
	Pending() *InputRequest

	// Board queries
	SquareStatus(square int) SquareStatus
	CorrectCount() int
	RevealedCount() int
	Leaders() []int

	// Question set
	GetQuestionSet() *QuestionSet

	// History
	GetHistory() []ActionEntry
	GetLastAction() *ActionEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state *GameState
	set   *QuestionSet
	now   func() time.Time
}

// NewEngine creates a new game engine for a question set
func NewEngine(set *QuestionSet) (*GameEngine, error) {
	if err := ValidateQuestionSet(set); err != nil {
		return nil, err
	}

	return &GameEngine{
		set:   set,
		state: NewGameState(set),
		now:   time.Now,
	}, nil
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the game state
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Hints == nil {
		state.Hints = make(map[int]string)
	}
	e.state = state
	return nil
}

// Reset starts a fresh game on the same question set
func (e *GameEngine) Reset() *GameState {
	e.state = NewGameState(e.set)
	return e.state
}

// IsGameOver returns whether the game has finished
func (e *GameEngine) IsGameOver() bool {
	return e.state.Phase == PhaseFinished
}

// GetScores returns the scores of all teams
func (e *GameEngine) GetScores() [NumTeams]int {
	return e.state.Scores
}

// CurrentTeam returns the team whose turn it is
func (e *GameEngine) CurrentTeam() int {
	return e.state.CurrentTeam
}

// TurnsRemaining returns how many turns a team has left
func (e *GameEngine) TurnsRemaining(team int) int {
	if team < 0 || team >= NumTeams {
		return 0
	}
	return TurnsPerTeam - e.state.TurnsTaken[team]
}

// Pending returns the input the engine is waiting for, if any
func (e *GameEngine) Pending() *InputRequest {
	return e.state.Pending
}

// SquareStatus returns the visible status of a square
func (e *GameEngine) SquareStatus(square int) SquareStatus {
	pos, ok := SquarePosition(square)
	if !ok || !e.state.Revealed[pos.Row][pos.Col] {
		return SquareHidden
	}
	if e.state.Correct[pos.Row][pos.Col] {
		return SquareCorrect
	}
	return SquareIncorrect
}

// CorrectCount returns the number of correctly answered squares
func (e *GameEngine) CorrectCount() int {
	return CountGrid(e.state.Correct)
}

// RevealedCount returns the number of attempted squares
func (e *GameEngine) RevealedCount() int {
	return CountGrid(e.state.Revealed)
}

// Leaders returns the teams currently holding the top score
func (e *GameEngine) Leaders() []int {
	return Leaders(e.state.Scores)
}

// GetQuestionSet returns the question set being played
func (e *GameEngine) GetQuestionSet() *QuestionSet {
	return e.set
}

// GetHistory returns the complete action history
func (e *GameEngine) GetHistory() []ActionEntry {
	return e.state.History
}

// GetLastAction returns the last action taken, or nil if none
func (e *GameEngine) GetLastAction() *ActionEntry {
	if len(e.state.History) == 0 {
		return nil
	}
	return &e.state.History[len(e.state.History)-1]
}
