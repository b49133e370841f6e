// Package board holds the screen-independent logic of the desktop client:
// square layout, square status and the answer text field.
package board

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wricardo/obstacle-course/desktop/remote"
)

// Layout maps grid positions to square numbers, spiralling inward
var Layout = [remote.GridSize][remote.GridSize]int{
	{1, 2, 3, 4},
	{12, 13, 14, 5},
	{11, 16, 15, 6},
	{10, 9, 8, 7},
}

// Status of a square as drawn
type Status int

const (
	Hidden Status = iota
	Correct
	Incorrect
)

// SquareStatus reads the status of row, col from a game state
func SquareStatus(state *remote.GameState, row, col int) Status {
	switch {
	case state == nil || !state.Revealed[row][col]:
		return Hidden
	case state.Correct[row][col]:
		return Correct
	default:
		return Incorrect
	}
}

// CellAt converts a pixel position into a grid cell. ok is false outside
// the grid.
func CellAt(x, y, originX, originY, cellSize int) (row, col int, ok bool) {
	if x < originX || y < originY || cellSize <= 0 {
		return 0, 0, false
	}
	col = (x - originX) / cellSize
	row = (y - originY) / cellSize
	if row >= remote.GridSize || col >= remote.GridSize {
		return 0, 0, false
	}
	return row, col, true
}

// TeamName is the display name of a zero-based team index
func TeamName(team int) string {
	return fmt.Sprintf("Team %d", team+1)
}

// Scoreboard renders one line per team, marking the team to play
func Scoreboard(state *remote.GameState) []string {
	lines := make([]string, 0, remote.NumTeams)
	for team := 0; team < remote.NumTeams; team++ {
		marker := "  "
		if team == state.CurrentTeam && state.Phase != remote.PhaseFinished {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %3d pts  turns %d/%d",
			marker, TeamName(team), state.Scores[team], state.TurnsTaken[team], remote.TurnsPerTeam))
	}
	return lines
}

// Winners returns the teams with the highest score
func Winners(state *remote.GameState) []int {
	best := state.Scores[0]
	for _, s := range state.Scores[1:] {
		if s > best {
			best = s
		}
	}
	var winners []int
	for team, s := range state.Scores {
		if s == best {
			winners = append(winners, team)
		}
	}
	return winners
}

// HintLines lists revealed hints in square order
func HintLines(state *remote.GameState) []string {
	var lines []string
	for square := 1; square <= remote.GridSize*remote.GridSize; square++ {
		if hint, ok := state.Hints[square]; ok {
			lines = append(lines, fmt.Sprintf("Hint %d: %s", square, hint))
		}
	}
	return lines
}

// PromptKind says which answer endpoint a prompt feeds
type PromptKind int

const (
	PromptSquare PromptKind = iota
	PromptObstacle
	PromptFinal
)

// TextField is a single-line answer editor
type TextField struct {
	Kind   PromptKind
	Square int
	Label  string
	Hint   string
	text   []rune
	max    int
}

func NewTextField(kind PromptKind, square int, label string, max int) *TextField {
	return &TextField{Kind: kind, Square: square, Label: label, max: max}
}

// Append adds typed characters, ignoring control runes and input past the limit
func (f *TextField) Append(chars []rune) {
	for _, r := range chars {
		if r < ' ' || r == utf8.RuneError {
			continue
		}
		if f.max > 0 && len(f.text) >= f.max {
			return
		}
		f.text = append(f.text, r)
	}
}

// Backspace removes the last character
func (f *TextField) Backspace() {
	if len(f.text) > 0 {
		f.text = f.text[:len(f.text)-1]
	}
}

func (f *TextField) Value() string {
	return string(f.text)
}

// Ready reports whether the field holds something worth submitting
func (f *TextField) Ready() bool {
	return strings.TrimSpace(f.Value()) != ""
}
