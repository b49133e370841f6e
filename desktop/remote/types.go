package remote

// Board geometry shared with the server
const (
	GridSize     = 4
	NumTeams     = 4
	TurnsPerTeam = 4
)

// Phase values reported by the server
const (
	PhasePlaying    = "playing"
	PhaseFinalGuess = "final_guess"
	PhaseFinished   = "finished"
)

// InputRequest is a question the server wants answered
type InputRequest struct {
	Kind   string `json:"kind"`
	Team   int    `json:"team"`
	Square int    `json:"square,omitempty"`
	Prompt string `json:"prompt"`
	Hint   string `json:"hint,omitempty"`
}

// GameState mirrors the server's game state
type GameState struct {
	QuestionSetID string                   `json:"question_set_id"`
	Revealed      [GridSize][GridSize]bool `json:"revealed"`
	Correct       [GridSize][GridSize]bool `json:"correct"`
	CurrentTeam   int                      `json:"current_team"`
	TurnsTaken    [NumTeams]int            `json:"turns_taken"`
	Scores        [NumTeams]int            `json:"scores"`
	Hints         map[int]string           `json:"hints"`
	FinalHint     string                   `json:"final_hint,omitempty"`
	Phase         string                   `json:"phase"`
	Outcome       string                   `json:"outcome,omitempty"`
	Pending       *InputRequest            `json:"pending,omitempty"`
	Message       string                   `json:"message"`
	TotalActions  int                      `json:"total_actions"`
}

// ActionResult reports what an answer did
type ActionResult struct {
	Applied  bool   `json:"applied"`
	Team     int    `json:"team"`
	Square   int    `json:"square,omitempty"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
	Message  string `json:"message"`
	GameOver bool   `json:"game_over"`
}

// ActionResponse is returned by the answer endpoints
type ActionResponse struct {
	Result    ActionResult `json:"result"`
	GameState *GameState   `json:"game_state"`
}

// SessionListItem is a session from the server
type SessionListItem struct {
	ID              string     `json:"id"`
	QuestionSetID   string     `json:"question_set_id"`
	QuestionSetName string     `json:"question_set_name,omitempty"`
	CreatedAt       string     `json:"created_at"`
	GameState       *GameState `json:"game_state"`
}

// QuestionSetItem is a playable question set
type QuestionSetItem struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	HintCount   int    `json:"hint_count"`
}

// WSMessage is one frame pushed over the live connection
type WSMessage struct {
	SessionID string     `json:"session_id"`
	GameState *GameState `json:"game_state,omitempty"`
	Event     string     `json:"event,omitempty"`
}
