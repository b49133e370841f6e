package engine

import (
	"fmt"
	"strings"
)

// SquarePrompt describes the question for a square the current team may attempt.
// It returns false when the square cannot be attempted right now.
func (e *GameEngine) SquarePrompt(square int) (*InputRequest, bool) {
	if !e.canAttempt(square) {
		return nil, false
	}
	q, ok := e.set.Lookup(square)
	if !ok {
		return nil, false
	}
	return &InputRequest{
		Kind:   RequestSquareAnswer,
		Team:   e.state.CurrentTeam,
		Square: square,
		Prompt: q.Question,
	}, true
}

func (e *GameEngine) canAttempt(square int) bool {
	if e.state.Phase != PhasePlaying {
		return false
	}
	pos, ok := SquarePosition(square)
	if !ok || e.state.Revealed[pos.Row][pos.Col] {
		return false
	}
	return e.state.TurnsTaken[e.state.CurrentTeam] < TurnsPerTeam
}

// Attempt answers the question of a square for the current team. Attempts on
// revealed squares, unknown squares, or by a team without turns are ignored
// and reported with Applied false. An empty answer counts as wrong.
func (e *GameEngine) Attempt(square int, answer string) ActionResult {
	team := e.state.CurrentTeam
	result := ActionResult{Kind: ActionAttempt, Team: team, Square: square, Submitted: answer, Phase: e.state.Phase}

	if !e.canAttempt(square) {
		result.Message = "Square cannot be attempted"
		result.GameOver = e.IsGameOver()
		return result
	}
	q, ok := e.set.Lookup(square)
	if !ok {
		result.Message = "Square cannot be attempted"
		return result
	}

	pos, _ := SquarePosition(square)
	e.state.Revealed[pos.Row][pos.Col] = true
	result.Applied = true

	if AnswersMatch(answer, q.Answer) {
		points := SquarePoints(square)
		e.state.Correct[pos.Row][pos.Col] = true
		e.state.Scores[team] += points
		result.Correct = true
		result.Points = points
		if IsHintSquare(square) && q.Hint != "" {
			e.state.Hints[square] = q.Hint
			result.RevealedHint = q.Hint
		}
		result.Message = fmt.Sprintf("Correct! %s earns %d points.", TeamName(team), points)
	} else {
		result.Message = fmt.Sprintf("Incorrect answer. Square %d stays black.", square)
	}

	e.record(ActionAttempt, team, square, answer, result.Correct, result.Points)
	e.advanceTurn()
	e.checkTermination()

	result.Phase = e.state.Phase
	result.GameOver = e.IsGameOver()
	e.state.Message = result.Message
	return result
}

// ObstaclePrompt describes the obstacle guess request for the current team
func (e *GameEngine) ObstaclePrompt() (*InputRequest, error) {
	if err := e.checkObstacleGuess(); err != nil {
		return nil, err
	}
	return &InputRequest{
		Kind:   RequestObstacleGuess,
		Team:   e.state.CurrentTeam,
		Prompt: fmt.Sprintf("%s, what is the obstacle? (worth %d points)", TeamName(e.state.CurrentTeam), ObstaclePoints(e.CorrectCount())),
	}, nil
}

func (e *GameEngine) checkObstacleGuess() error {
	switch e.state.Phase {
	case PhaseFinished:
		return ErrGameOver
	case PhaseFinalGuess:
		return ErrFinalGuessPending
	}
	if e.state.TurnsTaken[e.state.CurrentTeam] >= TurnsPerTeam {
		return ErrNoTurnsLeft
	}
	return nil
}

// GuessObstacle lets the current team guess the obstacle. A correct guess
// ends the game at once. A wrong guess costs the team its turn.
func (e *GameEngine) GuessObstacle(guess string) (ActionResult, error) {
	team := e.state.CurrentTeam
	if err := e.checkObstacleGuess(); err != nil {
		return ActionResult{Kind: ActionObstacleGuess, Team: team, Submitted: guess, Phase: e.state.Phase, GameOver: e.IsGameOver(), Message: err.Error()}, err
	}

	result := ActionResult{Applied: true, Kind: ActionObstacleGuess, Team: team, Submitted: guess}
	if AnswersMatch(guess, e.set.ObstacleAnswer) {
		points := ObstaclePoints(e.CorrectCount())
		e.state.Scores[team] += points
		result.Correct = true
		result.Points = points
		result.Message = fmt.Sprintf("%s solved the obstacle %q for %d points!", TeamName(team), strings.TrimSpace(e.set.ObstacleAnswer), points)
		e.record(ActionObstacleGuess, team, 0, guess, true, points)
		e.finish(OutcomeObstacleSolved)
	} else {
		result.Message = fmt.Sprintf("Wrong obstacle guess by %s.", TeamName(team))
		e.record(ActionObstacleGuess, team, 0, guess, false, 0)
		e.advanceTurn()
		e.checkTermination()
	}

	result.Phase = e.state.Phase
	result.GameOver = e.IsGameOver()
	e.state.Message = result.Message
	return result, nil
}

// SubmitFinalGuess answers the final guess request. The game ends either way.
func (e *GameEngine) SubmitFinalGuess(guess string) (ActionResult, error) {
	team := e.state.CurrentTeam
	switch e.state.Phase {
	case PhaseFinished:
		return ActionResult{Kind: ActionFinalGuess, Team: team, Submitted: guess, Phase: e.state.Phase, GameOver: true, Message: ErrGameOver.Error()}, ErrGameOver
	case PhasePlaying:
		return ActionResult{Kind: ActionFinalGuess, Team: team, Submitted: guess, Phase: e.state.Phase, Message: ErrNoFinalGuess.Error()}, ErrNoFinalGuess
	}

	result := ActionResult{Applied: true, Kind: ActionFinalGuess, Team: team, Submitted: guess}
	if AnswersMatch(guess, e.set.ObstacleAnswer) {
		e.state.Scores[team] += FinalGuessPoints
		result.Correct = true
		result.Points = FinalGuessPoints
		result.Message = fmt.Sprintf("Correct! %s earns %d points. The obstacle was %q.", TeamName(team), FinalGuessPoints, strings.TrimSpace(e.set.ObstacleAnswer))
		e.record(ActionFinalGuess, team, 0, guess, true, FinalGuessPoints)
		e.finish(OutcomeFinalGuessCorrect)
	} else {
		result.Message = fmt.Sprintf("Wrong! The obstacle was %q.", strings.TrimSpace(e.set.ObstacleAnswer))
		e.record(ActionFinalGuess, team, 0, guess, false, 0)
		e.finish(OutcomeFinalGuessMissed)
	}

	result.Phase = e.state.Phase
	result.GameOver = true
	e.state.Message = result.Message
	return result, nil
}

func (e *GameEngine) advanceTurn() {
	e.state.TurnsTaken[e.state.CurrentTeam]++
	e.state.CurrentTeam = (e.state.CurrentTeam + 1) % NumTeams
}

// checkTermination runs after every turn-consuming action
func (e *GameEngine) checkTermination() {
	if e.RevealedCount() == SquareCount {
		e.state.Phase = PhaseFinalGuess
		e.state.FinalHint = e.set.FinalHint
		e.state.Pending = &InputRequest{
			Kind:   RequestFinalGuess,
			Team:   e.state.CurrentTeam,
			Prompt: fmt.Sprintf("%s, all squares are open. What is the obstacle?", TeamName(e.state.CurrentTeam)),
			Hint:   e.set.FinalHint,
		}
		return
	}

	for _, taken := range e.state.TurnsTaken {
		if taken < TurnsPerTeam {
			return
		}
	}
	e.finish(OutcomeTurnsExhausted)
}

func (e *GameEngine) finish(outcome Outcome) {
	e.state.Phase = PhaseFinished
	e.state.Outcome = outcome
	e.state.Pending = nil
}

func (e *GameEngine) record(kind ActionKind, team, square int, submitted string, correct bool, points int) {
	entry := ActionEntry{
		Number:    e.state.TotalActions + 1,
		Kind:      kind,
		Team:      team,
		Square:    square,
		Submitted: submitted,
		Correct:   correct,
		Points:    points,
		Timestamp: e.now().UnixMilli(),
	}
	e.state.History = append(e.state.History, entry)
	e.state.TotalActions++
}
