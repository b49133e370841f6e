package engine

import "strings"

// SquareAt returns the square number shown at row, col
func SquareAt(row, col int) (int, bool) {
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return 0, false
	}
	return GridLayout[row][col], true
}

// SquarePosition returns the grid position of a square number
func SquarePosition(square int) (Position, bool) {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if GridLayout[r][c] == square {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

// IsHintSquare reports whether a square carries a hint and the higher score
func IsHintSquare(square int) bool {
	return square >= FirstHintSquare && square <= SquareCount
}

// SquarePoints returns the score for answering a square correctly
func SquarePoints(square int) int {
	if IsHintSquare(square) {
		return HintSquarePoints
	}
	return RegularSquarePoints
}

// ObstaclePoints returns the score for solving the obstacle after
// correctCount squares were answered correctly.
func ObstaclePoints(correctCount int) int {
	points := ObstacleBasePoints - ObstaclePenalty*correctCount
	if points < ObstacleMinPoints {
		return ObstacleMinPoints
	}
	return points
}

// AnswersMatch compares a submitted answer with the expected one,
// ignoring case and surrounding whitespace. Empty submissions never match.
func AnswersMatch(submitted, expected string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	return strings.EqualFold(submitted, strings.TrimSpace(expected))
}

// CountGrid counts true cells in a grid
func CountGrid(grid [GridSize][GridSize]bool) int {
	count := 0
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] {
				count++
			}
		}
	}
	return count
}

// Leaders returns the teams holding the highest score
func Leaders(scores [NumTeams]int) []int {
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	var leaders []int
	for team, s := range scores {
		if s == best {
			leaders = append(leaders, team)
		}
	}
	return leaders
}

// TeamName returns the display name of a zero-based team index
func TeamName(team int) string {
	switch team {
	case 0:
		return "Team 1"
	case 1:
		return "Team 2"
	case 2:
		return "Team 3"
	case 3:
		return "Team 4"
	}
	return "Unknown team"
}
