// Package engine implements the rules of the obstacle course round.
//
// A round is played on a 4x4 grid of numbered squares laid out as an inward
// spiral (see GridLayout). Four teams take turns in a fixed rotation and each
// team gets four turns. A turn is either an attempt at an unrevealed square or
// a guess at the hidden obstacle term.
//
// Core Types:
//
// QuestionSet holds the sixteen questions, the obstacle answer and the final
// hint. GameState is the full board and scoreboard. GameEngine applies player
// actions to a GameState and never talks to a user directly: it describes the
// input it needs as an InputRequest and the caller answers through Attempt,
// GuessObstacle or SubmitFinalGuess.
//
// Usage:
//
//	set, err := engine.LoadQuestionSetFile("problems/questions_001.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewEngine(set)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if req, ok := game.SquarePrompt(13); ok {
//		fmt.Println(req.Prompt)
//		result := game.Attempt(13, readAnswer())
//		fmt.Println(result.Message)
//	}
//
// Scoring:
//
// Squares 1-12 are worth 10 points and squares 13-16 are worth 15 and reveal
// a hint. Solving the obstacle is worth 90 points minus 5 per correctly
// answered square, never less than 10, and ends the game. Once every square
// has been attempted the final hint is shown and the current team gets one
// last guess worth 5 points.
package engine
