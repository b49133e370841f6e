package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidQuestionSet = errors.New("invalid question set")
)

type rawQuestion struct {
	Square   *int    `json:"square"`
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	Hint     *string `json:"hint"`
}

type rawQuestionSet struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Questions      *[]rawQuestion `json:"questions"`
	ObstacleAnswer *string        `json:"obstacle_answer"`
	FinalHint      *string        `json:"final_hint"`
}

// ParseQuestionSet decodes and validates a question set document
func ParseQuestionSet(data []byte) (*QuestionSet, error) {
	var raw rawQuestionSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionSet, err)
	}

	if raw.Questions == nil {
		return nil, fmt.Errorf("%w: questions", ErrMissingField)
	}
	if raw.ObstacleAnswer == nil {
		return nil, fmt.Errorf("%w: obstacle_answer", ErrMissingField)
	}
	if raw.FinalHint == nil {
		return nil, fmt.Errorf("%w: final_hint", ErrMissingField)
	}

	set := &QuestionSet{
		Name:           raw.Name,
		Description:    raw.Description,
		ObstacleAnswer: *raw.ObstacleAnswer,
		FinalHint:      *raw.FinalHint,
		Questions:      make([]Question, 0, len(*raw.Questions)),
	}
	for i, q := range *raw.Questions {
		switch {
		case q.Square == nil:
			return nil, fmt.Errorf("%w: questions[%d].square", ErrMissingField, i)
		case q.Question == nil:
			return nil, fmt.Errorf("%w: questions[%d].question", ErrMissingField, i)
		case q.Answer == nil:
			return nil, fmt.Errorf("%w: questions[%d].answer", ErrMissingField, i)
		}
		question := Question{Square: *q.Square, Question: *q.Question, Answer: *q.Answer}
		if q.Hint != nil {
			question.Hint = *q.Hint
		}
		set.Questions = append(set.Questions, question)
	}

	if err := ValidateQuestionSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

// ValidateQuestionSet checks that a set covers exactly squares 1..16 and
// that every answer can actually be matched.
func ValidateQuestionSet(set *QuestionSet) error {
	if set == nil {
		return fmt.Errorf("%w: question set is nil", ErrInvalidQuestionSet)
	}
	if strings.TrimSpace(set.ObstacleAnswer) == "" {
		return fmt.Errorf("%w: obstacle_answer must not be empty", ErrInvalidQuestionSet)
	}
	if len(set.Questions) != SquareCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidQuestionSet, SquareCount, len(set.Questions))
	}

	seen := make(map[int]bool, SquareCount)
	for _, q := range set.Questions {
		if q.Square < 1 || q.Square > SquareCount {
			return fmt.Errorf("%w: square %d out of range 1-%d", ErrInvalidQuestionSet, q.Square, SquareCount)
		}
		if seen[q.Square] {
			return fmt.Errorf("%w: duplicate square %d", ErrInvalidQuestionSet, q.Square)
		}
		seen[q.Square] = true

		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: square %d has no question text", ErrInvalidQuestionSet, q.Square)
		}
		if strings.TrimSpace(q.Answer) == "" {
			return fmt.Errorf("%w: square %d has no answer", ErrInvalidQuestionSet, q.Square)
		}
		if len(q.Answer) > MaxAnswerLength {
			return fmt.Errorf("%w: square %d answer longer than %d characters", ErrInvalidQuestionSet, q.Square, MaxAnswerLength)
		}
	}
	return nil
}

// LoadQuestionSetFile reads and validates a question set from disk
func LoadQuestionSetFile(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set, err := ParseQuestionSet(data)
	if err != nil {
		return nil, fmt.Errorf("question set %s: %w", path, err)
	}
	return set, nil
}

// Lookup returns the question for a square
func (qs *QuestionSet) Lookup(square int) (Question, bool) {
	for _, q := range qs.Questions {
		if q.Square == square {
			return q, true
		}
	}
	return Question{}, false
}

// HintCount returns how many hint squares actually carry a hint
func (qs *QuestionSet) HintCount() int {
	count := 0
	for _, q := range qs.Questions {
		if IsHintSquare(q.Square) && q.Hint != "" {
			count++
		}
	}
	return count
}

// NewGameState creates a fresh game state for a question set
func NewGameState(set *QuestionSet) *GameState {
	state := &GameState{
		Hints:   make(map[int]string),
		Phase:   PhasePlaying,
		Message: fmt.Sprintf("%s, pick a square.", TeamName(0)),
		History: []ActionEntry{},
	}
	if set != nil {
		state.QuestionSetID = set.ID
	}
	return state
}
