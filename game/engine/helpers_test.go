package engine

import "fmt"

func createTestQuestionSet() *QuestionSet {
	set := &QuestionSet{
		ID:             "001",
		Name:           "Test Round",
		ObstacleAnswer: "Lighthouse",
		FinalHint:      "It guides ships at night",
	}
	for square := 1; square <= SquareCount; square++ {
		q := Question{
			Square:   square,
			Question: fmt.Sprintf("Question %d?", square),
			Answer:   fmt.Sprintf("answer%d", square),
		}
		if IsHintSquare(square) {
			q.Hint = fmt.Sprintf("hint %d", square)
		}
		set.Questions = append(set.Questions, q)
	}
	return set
}

func newTestEngine() *GameEngine {
	e, err := NewEngine(createTestQuestionSet())
	if err != nil {
		panic(err)
	}
	return e
}
