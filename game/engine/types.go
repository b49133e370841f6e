package engine

// Phase is the stage a game is in
type Phase string

const (
	PhasePlaying    Phase = "playing"
	PhaseFinalGuess Phase = "final_guess"
	PhaseFinished   Phase = "finished"
)

// Outcome describes how a finished game ended
type Outcome string

const (
	OutcomeNone              Outcome = ""
	OutcomeObstacleSolved    Outcome = "obstacle_solved"
	OutcomeTurnsExhausted    Outcome = "turns_exhausted"
	OutcomeFinalGuessCorrect Outcome = "final_guess_correct"
	OutcomeFinalGuessMissed  Outcome = "final_guess_missed"
)

// RequestKind identifies what input the engine is asking for
type RequestKind string

const (
	RequestSquareAnswer  RequestKind = "square_answer"
	RequestObstacleGuess RequestKind = "obstacle_guess"
	RequestFinalGuess    RequestKind = "final_guess"
)

// ActionKind identifies a recorded player action
type ActionKind string

const (
	ActionAttempt       ActionKind = "attempt"
	ActionObstacleGuess ActionKind = "obstacle_guess"
	ActionFinalGuess    ActionKind = "final_guess"
)

// SquareStatus is the visible status of one square
type SquareStatus string

const (
	SquareHidden    SquareStatus = "hidden"
	SquareCorrect   SquareStatus = "correct"
	SquareIncorrect SquareStatus = "incorrect"
)

const (
	GridSize     = 4
	SquareCount  = GridSize * GridSize
	NumTeams     = 4
	TurnsPerTeam = 4

	// Squares from FirstHintSquare on are worth more and carry hints
	FirstHintSquare     = 13
	RegularSquarePoints = 10
	HintSquarePoints    = 15

	ObstacleBasePoints  = 90
	ObstaclePenalty     = 5
	ObstacleMinPoints   = 10
	FinalGuessPoints    = 5
	MaxAnswerLength     = 200
	WebSocketBufferSize = 256
)

// GridLayout maps grid positions to square numbers. Squares spiral
// inward clockwise from the top-left corner.
var GridLayout = [GridSize][GridSize]int{
	{1, 2, 3, 4},
	{12, 13, 14, 5},
	{11, 16, 15, 6},
	{10, 9, 8, 7},
}

// Position is a row/column pair on the grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Question binds one square to its question, answer and optional hint
type Question struct {
	Square   int    `json:"square"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Hint     string `json:"hint,omitempty"`
}

// QuestionSet is a complete round: sixteen questions, the obstacle term and the final hint
type QuestionSet struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name,omitempty"`
	Description    string     `json:"description,omitempty"`
	Questions      []Question `json:"questions"`
	ObstacleAnswer string     `json:"obstacle_answer"`
	FinalHint      string     `json:"final_hint"`
}

// InputRequest describes input the engine needs before it can proceed.
// Callers show the prompt however they like and answer with the matching
// engine operation.
type InputRequest struct {
	Kind   RequestKind `json:"kind"`
	Team   int         `json:"team"`
	Square int         `json:"square,omitempty"`
	Prompt string      `json:"prompt"`
	Hint   string      `json:"hint,omitempty"`
}

// ActionResult reports what one engine operation did
type ActionResult struct {
	Applied      bool       `json:"applied"`
	Kind         ActionKind `json:"kind"`
	Team         int        `json:"team"`
	Square       int        `json:"square,omitempty"`
	Submitted    string     `json:"submitted"`
	Correct      bool       `json:"correct"`
	Points       int        `json:"points"`
	RevealedHint string     `json:"revealed_hint,omitempty"`
	Message      string     `json:"message"`
	Phase        Phase      `json:"phase"`
	GameOver     bool       `json:"game_over"`
}

// ActionEntry is a single line of the action history
type ActionEntry struct {
	Number    int        `json:"number"`
	Kind      ActionKind `json:"kind"`
	Team      int        `json:"team"`
	Square    int        `json:"square,omitempty"`
	Submitted string     `json:"submitted"`
	Correct   bool       `json:"correct"`
	Points    int        `json:"points"`
	Timestamp int64      `json:"timestamp"`
}

// GameState represents the complete game state
type GameState struct {
	QuestionSetID string                   `json:"question_set_id"`
	Revealed      [GridSize][GridSize]bool `json:"revealed"`
	Correct       [GridSize][GridSize]bool `json:"correct"`
	CurrentTeam   int                      `json:"current_team"`
	TurnsTaken    [NumTeams]int            `json:"turns_taken"`
	Scores        [NumTeams]int            `json:"scores"`
	Hints         map[int]string           `json:"hints"`
	FinalHint     string                   `json:"final_hint,omitempty"`
	Phase         Phase                    `json:"phase"`
	Outcome       Outcome                  `json:"outcome,omitempty"`
	Pending       *InputRequest            `json:"pending,omitempty"`
	Message       string                   `json:"message"`
	History       []ActionEntry            `json:"history"`
	TotalActions  int                      `json:"total_actions"`
}

// Clone returns a deep copy that shares nothing with the receiver
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Hints = make(map[int]string, len(s.Hints))
	for square, hint := range s.Hints {
		c.Hints[square] = hint
	}
	c.History = make([]ActionEntry, len(s.History))
	copy(c.History, s.History)
	if s.Pending != nil {
		pending := *s.Pending
		c.Pending = &pending
	}
	return &c
}
