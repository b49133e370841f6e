package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	e := newTestEngine()

	state := e.GetState()
	assert.Equal(t, PhasePlaying, state.Phase)
	assert.Equal(t, 0, state.CurrentTeam)
	assert.Equal(t, [NumTeams]int{}, state.Scores)
	assert.Equal(t, [NumTeams]int{}, state.TurnsTaken)
	assert.Empty(t, state.Hints)
	assert.Empty(t, state.FinalHint)
	assert.Nil(t, state.Pending)
	assert.Equal(t, "001", state.QuestionSetID)
	assert.False(t, e.IsGameOver())
}

func TestNewEngineRejectsInvalidSet(t *testing.T) {
	set := createTestQuestionSet()
	set.Questions = set.Questions[:15]

	_, err := NewEngine(set)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuestionSet)
}

func TestAttemptCorrectRegularSquare(t *testing.T) {
	e := newTestEngine()

	result := e.Attempt(1, "ANSWER1")
	assert.True(t, result.Applied)
	assert.True(t, result.Correct)
	assert.Equal(t, RegularSquarePoints, result.Points)
	assert.Empty(t, result.RevealedHint)

	state := e.GetState()
	assert.True(t, state.Revealed[0][0])
	assert.True(t, state.Correct[0][0])
	assert.Equal(t, 10, state.Scores[0])
	assert.Equal(t, 1, state.TurnsTaken[0])
	assert.Equal(t, 1, state.CurrentTeam)
	assert.Equal(t, SquareCorrect, e.SquareStatus(1))
}

func TestAttemptHintSquare(t *testing.T) {
	e := newTestEngine()

	result := e.Attempt(13, "answer13")
	require.True(t, result.Correct)
	assert.Equal(t, HintSquarePoints, result.Points)
	assert.Equal(t, "hint 13", result.RevealedHint)

	state := e.GetState()
	assert.Equal(t, [NumTeams]int{15, 0, 0, 0}, state.Scores)
	assert.Equal(t, "hint 13", state.Hints[13])
	assert.True(t, state.Revealed[1][1])
	assert.True(t, state.Correct[1][1])
}

func TestAttemptWrongAnswerUsesSquare(t *testing.T) {
	e := newTestEngine()

	result := e.Attempt(14, "nope")
	assert.True(t, result.Applied)
	assert.False(t, result.Correct)
	assert.Zero(t, result.Points)

	state := e.GetState()
	assert.True(t, state.Revealed[1][2])
	assert.False(t, state.Correct[1][2])
	assert.Empty(t, state.Hints)
	assert.Equal(t, 1, state.CurrentTeam)
	assert.Equal(t, SquareIncorrect, e.SquareStatus(14))
	assert.NotContains(t, result.Message, "answer14")
	assert.NotContains(t, state.Message, "answer14")
}

func TestAttemptEmptyAnswerIsWrong(t *testing.T) {
	e := newTestEngine()

	result := e.Attempt(2, "   ")
	assert.True(t, result.Applied)
	assert.False(t, result.Correct)
	assert.Equal(t, 1, e.GetState().TurnsTaken[0])
}

func TestAttemptOverlongAnswerIsWrong(t *testing.T) {
	e := newTestEngine()

	result := e.Attempt(1, "answer1"+strings.Repeat(" x", MaxAnswerLength))
	assert.True(t, result.Applied)
	assert.False(t, result.Correct)
	assert.Equal(t, SquareIncorrect, e.SquareStatus(1))
	assert.Equal(t, 1, e.GetState().CurrentTeam)
}

func TestAttemptRevealedSquareIsNoOp(t *testing.T) {
	e := newTestEngine()
	e.Attempt(5, "answer5")

	before := *e.GetState()
	result := e.Attempt(5, "answer5")

	assert.False(t, result.Applied)
	after := e.GetState()
	assert.Equal(t, before.Scores, after.Scores)
	assert.Equal(t, before.TurnsTaken, after.TurnsTaken)
	assert.Equal(t, before.CurrentTeam, after.CurrentTeam)
	assert.Equal(t, before.TotalActions, after.TotalActions)
}

func TestAttemptInvalidSquareIsNoOp(t *testing.T) {
	e := newTestEngine()

	for _, square := range []int{0, -1, 17, 100} {
		result := e.Attempt(square, "x")
		assert.False(t, result.Applied, "square %d", square)
	}
	assert.Equal(t, 0, e.GetState().TotalActions)
	assert.Equal(t, 0, e.CurrentTeam())
}

func TestAttemptWithoutTurnsIsNoOp(t *testing.T) {
	e := newTestEngine()
	state := e.GetState()
	state.TurnsTaken[0] = TurnsPerTeam

	result := e.Attempt(1, "answer1")
	assert.False(t, result.Applied)
	assert.False(t, state.Revealed[0][0])
	assert.Equal(t, 0, state.CurrentTeam)
}

func TestSquarePrompt(t *testing.T) {
	e := newTestEngine()

	req, ok := e.SquarePrompt(7)
	require.True(t, ok)
	assert.Equal(t, RequestSquareAnswer, req.Kind)
	assert.Equal(t, 7, req.Square)
	assert.Equal(t, 0, req.Team)
	assert.Equal(t, "Question 7?", req.Prompt)

	e.Attempt(7, "")
	_, ok = e.SquarePrompt(7)
	assert.False(t, ok)
}

func TestTeamRotation(t *testing.T) {
	e := newTestEngine()

	expected := []int{1, 2, 3, 0, 1}
	for i, square := range []int{1, 2, 3, 4, 5} {
		e.Attempt(square, "wrong")
		assert.Equal(t, expected[i], e.CurrentTeam())
	}
}

func TestAllWrongAnswersEnterFinalGuess(t *testing.T) {
	e := newTestEngine()

	for square := 1; square <= SquareCount; square++ {
		result := e.Attempt(square, "wrong")
		require.True(t, result.Applied, "square %d", square)
	}

	state := e.GetState()
	assert.Equal(t, [NumTeams]int{}, state.Scores)
	assert.Equal(t, PhaseFinalGuess, state.Phase)
	assert.Equal(t, "It guides ships at night", state.FinalHint)
	require.NotNil(t, state.Pending)
	assert.Equal(t, RequestFinalGuess, state.Pending.Kind)
	assert.Equal(t, state.CurrentTeam, state.Pending.Team)
	assert.Equal(t, "It guides ships at night", state.Pending.Hint)
	assert.False(t, e.IsGameOver())

	// Every team used all four turns.
	for team := 0; team < NumTeams; team++ {
		assert.Equal(t, 0, e.TurnsRemaining(team))
	}
}

func TestFinalGuessCorrect(t *testing.T) {
	e := newTestEngine()
	for square := 1; square <= SquareCount; square++ {
		e.Attempt(square, "wrong")
	}
	team := e.CurrentTeam()

	result, err := e.SubmitFinalGuess("  lighthouse ")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, FinalGuessPoints, result.Points)
	assert.True(t, result.GameOver)

	state := e.GetState()
	assert.Equal(t, FinalGuessPoints, state.Scores[team])
	assert.Equal(t, PhaseFinished, state.Phase)
	assert.Equal(t, OutcomeFinalGuessCorrect, state.Outcome)
	assert.Nil(t, state.Pending)
}

func TestFinalGuessMissed(t *testing.T) {
	e := newTestEngine()
	for square := 1; square <= SquareCount; square++ {
		e.Attempt(square, "wrong")
	}

	result, err := e.SubmitFinalGuess("")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.True(t, e.IsGameOver())
	assert.Equal(t, OutcomeFinalGuessMissed, e.GetState().Outcome)
	assert.Equal(t, [NumTeams]int{}, e.GetScores())

	_, err = e.SubmitFinalGuess("lighthouse")
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestFinalGuessOutsidePhase(t *testing.T) {
	e := newTestEngine()

	_, err := e.SubmitFinalGuess("lighthouse")
	assert.ErrorIs(t, err, ErrNoFinalGuess)
	assert.Equal(t, [NumTeams]int{}, e.GetScores())
}

func TestObstacleGuessAfterFourCorrect(t *testing.T) {
	e := newTestEngine()
	for _, square := range []int{1, 2, 3, 4} {
		require.True(t, e.Attempt(square, fmt.Sprintf("answer%d", square)).Correct)
	}
	team := e.CurrentTeam()
	before := e.GetScores()[team]

	result, err := e.GuessObstacle("LIGHTHOUSE")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 70, result.Points)
	assert.True(t, result.GameOver)

	state := e.GetState()
	assert.Equal(t, before+70, state.Scores[team])
	assert.Equal(t, PhaseFinished, state.Phase)
	assert.Equal(t, OutcomeObstacleSolved, state.Outcome)
	assert.Equal(t, team, state.CurrentTeam, "a winning guess does not rotate the turn")
}

func TestObstacleGuessImmediately(t *testing.T) {
	e := newTestEngine()

	result, err := e.GuessObstacle("lighthouse")
	require.NoError(t, err)
	assert.Equal(t, 90, result.Points)
	assert.Equal(t, 90, e.GetScores()[0])
}

func TestObstacleGuessWrongAdvancesTurn(t *testing.T) {
	e := newTestEngine()

	result, err := e.GuessObstacle("harbor")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.False(t, result.Correct)

	state := e.GetState()
	assert.Equal(t, 1, state.CurrentTeam)
	assert.Equal(t, 1, state.TurnsTaken[0])
	assert.Equal(t, PhasePlaying, state.Phase)
	assert.Equal(t, [NumTeams]int{}, state.Scores)
}

func TestObstacleGuessWithoutTurns(t *testing.T) {
	e := newTestEngine()
	e.GetState().TurnsTaken[0] = TurnsPerTeam

	_, err := e.GuessObstacle("lighthouse")
	assert.ErrorIs(t, err, ErrNoTurnsLeft)
	assert.Equal(t, [NumTeams]int{}, e.GetScores())
	assert.Equal(t, 0, e.CurrentTeam())
}

func TestObstacleGuessDuringFinalPhase(t *testing.T) {
	e := newTestEngine()
	for square := 1; square <= SquareCount; square++ {
		e.Attempt(square, "wrong")
	}

	_, err := e.GuessObstacle("lighthouse")
	assert.ErrorIs(t, err, ErrFinalGuessPending)

	_, err = e.ObstaclePrompt()
	assert.ErrorIs(t, err, ErrFinalGuessPending)
}

func TestTurnsExhaustedEndsGame(t *testing.T) {
	e := newTestEngine()

	// Four rounds of wrong obstacle guesses use every turn without revealing anything.
	for i := 0; i < NumTeams*TurnsPerTeam; i++ {
		_, err := e.GuessObstacle("wrong")
		require.NoError(t, err)
	}

	state := e.GetState()
	assert.Equal(t, PhaseFinished, state.Phase)
	assert.Equal(t, OutcomeTurnsExhausted, state.Outcome)
	assert.Zero(t, e.RevealedCount())

	_, err := e.GuessObstacle("lighthouse")
	assert.ErrorIs(t, err, ErrGameOver)
	assert.False(t, e.Attempt(1, "answer1").Applied)
}

func TestRevealedNeverReverts(t *testing.T) {
	e := newTestEngine()

	squares := []int{13, 1, 16, 2, 7, 14, 9, 3}
	for i, square := range squares {
		answer := "wrong"
		if i%2 == 0 {
			answer = fmt.Sprintf("answer%d", square)
		}
		e.Attempt(square, answer)

		state := e.GetState()
		for _, seen := range squares[:i+1] {
			pos, _ := SquarePosition(seen)
			assert.True(t, state.Revealed[pos.Row][pos.Col], "square %d", seen)
		}
		for r := 0; r < GridSize; r++ {
			for c := 0; c < GridSize; c++ {
				if state.Correct[r][c] {
					assert.True(t, state.Revealed[r][c])
				}
			}
		}
	}
	assert.Equal(t, 4, e.CorrectCount())
	assert.Equal(t, 8, e.RevealedCount())
}

func TestHistoryAndReset(t *testing.T) {
	e := newTestEngine()
	e.Attempt(1, "answer1")
	e.GuessObstacle("nope")

	history := e.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, ActionAttempt, history[0].Kind)
	assert.Equal(t, 1, history[0].Number)
	assert.Equal(t, ActionObstacleGuess, history[1].Kind)
	assert.Equal(t, 1, history[1].Team)
	assert.Equal(t, history[1], *e.GetLastAction())

	state := e.Reset()
	assert.Empty(t, state.History)
	assert.Nil(t, e.GetLastAction())
	assert.Equal(t, PhasePlaying, state.Phase)
	assert.Equal(t, [NumTeams]int{}, state.Scores)
}

func TestSetState(t *testing.T) {
	e := newTestEngine()
	assert.Error(t, e.SetState(nil))

	state := &GameState{Phase: PhasePlaying, CurrentTeam: 2}
	require.NoError(t, e.SetState(state))
	assert.NotNil(t, e.GetState().Hints)
	assert.Equal(t, 2, e.CurrentTeam())
}

func TestLeaders(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, []int{0, 1, 2, 3}, e.Leaders())

	e.Attempt(13, "answer13")
	e.Attempt(1, "answer1")
	assert.Equal(t, []int{0}, e.Leaders())
}

func TestGameStateClone(t *testing.T) {
	e := newTestEngine()
	e.Attempt(13, "answer13")
	for square := 1; square <= SquareCount; square++ {
		e.Attempt(square, "wrong")
	}
	state := e.GetState()
	require.Equal(t, PhaseFinalGuess, state.Phase)
	require.NotNil(t, state.Pending)

	c := state.Clone()
	assert.Equal(t, state, c)

	c.Hints[14] = "changed"
	c.History[0].Submitted = "changed"
	c.Pending.Prompt = "changed"
	c.Revealed[0][0] = false
	c.Scores[0] = 99

	assert.NotContains(t, state.Hints, 14)
	assert.Equal(t, "answer13", state.History[0].Submitted)
	assert.NotEqual(t, "changed", state.Pending.Prompt)
	assert.True(t, state.Revealed[0][0])
	assert.Equal(t, 15, state.Scores[0])

	var nilState *GameState
	assert.Nil(t, nilState.Clone())
}
