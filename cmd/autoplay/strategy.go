package main

import (
	"math/rand"

	"github.com/wricardo/obstacle-course/game/engine"
)

// Move is the next action the bot wants to take
type Move struct {
	Kind   engine.ActionKind
	Square int
	Answer string
}

// wrongAnswer is what a team says when it does not know
const wrongAnswer = "pass"

// Strategy plays every team from a local answer key. Each answer is right
// with probability accuracy. Once a team has seen threshold correct squares
// it tries the obstacle instead of opening another square.
type Strategy struct {
	key       *engine.QuestionSet
	accuracy  float64
	threshold int
	rng       *rand.Rand

	// Obstacle attempts made in the current game, per team
	guessed [engine.NumTeams]int
}

func NewStrategy(key *engine.QuestionSet, accuracy float64, threshold int, seed int64) *Strategy {
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	return &Strategy{
		key:       key,
		accuracy:  accuracy,
		threshold: threshold,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Reset forgets per-game bookkeeping
func (s *Strategy) Reset() {
	s.guessed = [engine.NumTeams]int{}
}

// NextMove picks an action for the current team. ok is false once the game
// is over.
func (s *Strategy) NextMove(state *engine.GameState) (Move, bool) {
	switch state.Phase {
	case engine.PhaseFinished:
		return Move{}, false
	case engine.PhaseFinalGuess:
		return Move{Kind: engine.ActionFinalGuess, Answer: s.answer(s.key.ObstacleAnswer)}, true
	}

	team := state.CurrentTeam
	correct := engine.CountGrid(state.Correct)
	square := nextSquare(state)

	// Each team tries the obstacle at most once per game
	if square == 0 || (s.threshold > 0 && correct >= s.threshold && s.guessed[team] == 0) {
		s.guessed[team]++
		return Move{Kind: engine.ActionObstacleGuess, Answer: s.answer(s.key.ObstacleAnswer)}, true
	}

	q, _ := s.key.Lookup(square)
	return Move{Kind: engine.ActionAttempt, Square: square, Answer: s.answer(q.Answer)}, true
}

func (s *Strategy) answer(correct string) string {
	if s.rng.Float64() < s.accuracy {
		return correct
	}
	return wrongAnswer
}

// nextSquare returns the lowest-numbered hidden square, or 0 if none is left
func nextSquare(state *engine.GameState) int {
	for square := 1; square <= engine.SquareCount; square++ {
		pos, _ := engine.SquarePosition(square)
		if !state.Revealed[pos.Row][pos.Col] {
			return square
		}
	}
	return 0
}
