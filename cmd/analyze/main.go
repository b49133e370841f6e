// Command analyze prints quick, human-readable statistics about the question
// sets in a problems directory: hint coverage, answer lengths, picture size
// and the tile size the server will serve. It finishes with the obstacle
// score table so hosts can see what an early guess is worth.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/tiles"
)

// SetStats is the analysis of one question set
type SetStats struct {
	ID              string
	Name            string
	Questions       int
	Hints           int
	IgnoredHints    int
	MinAnswer       int
	MaxAnswer       int
	AvgAnswer       float64
	LongestSquare   int
	ObstacleWords   int
	MaxSquarePoints int

	// Zero when the picture is missing or unreadable
	ImageWidth  int
	ImageHeight int
	TileWidth   int
	TileHeight  int
	ImageError  string
}

func analyzeSet(path string, canvas int) (*SetStats, error) {
	set, err := engine.LoadQuestionSetFile(path)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "questions_"), ".json")
	stats := &SetStats{
		ID:            id,
		Name:          set.Name,
		Questions:     len(set.Questions),
		Hints:         set.HintCount(),
		ObstacleWords: len(strings.Fields(set.ObstacleAnswer)),
	}

	total := 0
	for i, q := range set.Questions {
		n := len(strings.TrimSpace(q.Answer))
		total += n
		if i == 0 || n < stats.MinAnswer {
			stats.MinAnswer = n
		}
		if n > stats.MaxAnswer {
			stats.MaxAnswer = n
			stats.LongestSquare = q.Square
		}
		if !engine.IsHintSquare(q.Square) && q.Hint != "" {
			stats.IgnoredHints++
		}
		stats.MaxSquarePoints += engine.SquarePoints(q.Square)
	}
	if len(set.Questions) > 0 {
		stats.AvgAnswer = float64(total) / float64(len(set.Questions))
	}

	imagePath := filepath.Join(filepath.Dir(path), "image_"+id+".png")
	if err := imageStats(imagePath, canvas, stats); err != nil {
		stats.ImageError = err.Error()
	}
	return stats, nil
}

func imageStats(path string, canvas int, stats *SetStats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := tiles.Decode(f)
	if err != nil {
		return err
	}
	b := img.Bounds()
	stats.ImageWidth, stats.ImageHeight = b.Dx(), b.Dy()

	set, err := tiles.Slice(img, canvas)
	if err != nil {
		return err
	}
	stats.TileWidth, stats.TileHeight = set.TileWidth, set.TileHeight
	return nil
}

func printStats(w io.Writer, s *SetStats) {
	fmt.Fprintf(w, "Name: %s\n", s.Name)
	fmt.Fprintf(w, "Questions: %d\n", s.Questions)
	fmt.Fprintf(w, "Hints: %d/%d\n", s.Hints, engine.SquareCount-engine.FirstHintSquare+1)
	fmt.Fprintf(w, "Answer length: min %d, max %d (square %d), avg %.1f\n", s.MinAnswer, s.MaxAnswer, s.LongestSquare, s.AvgAnswer)
	fmt.Fprintf(w, "Obstacle answer: %d word(s)\n", s.ObstacleWords)
	fmt.Fprintf(w, "Square points available: %d\n", s.MaxSquarePoints)

	if s.ImageError != "" {
		fmt.Fprintf(w, "⚠️  Image: %s\n", s.ImageError)
	} else {
		fmt.Fprintf(w, "Image: %dx%d, tiles %dx%d\n", s.ImageWidth, s.ImageHeight, s.TileWidth, s.TileHeight)
	}
	if s.IgnoredHints > 0 {
		fmt.Fprintf(w, "⚠️  %d hint(s) on squares 1-%d are never revealed\n", s.IgnoredHints, engine.FirstHintSquare-1)
	}
	if s.Hints < engine.SquareCount-engine.FirstHintSquare+1 {
		fmt.Fprintf(w, "⚠️  Some hint squares reveal nothing\n")
	} else {
		fmt.Fprintf(w, "✅ Every hint square carries a hint\n")
	}
}

// printScoreTable prints what a correct obstacle guess is worth after n
// correctly answered squares
func printScoreTable(w io.Writer) {
	fmt.Fprintln(w, "Correct squares | Obstacle points")
	for n := 0; n <= engine.SquareCount; n++ {
		fmt.Fprintf(w, "%15d | %d\n", n, engine.ObstaclePoints(n))
	}
}

func run(w io.Writer, dir string, canvas int) error {
	files, err := filepath.Glob(filepath.Join(dir, "questions_*.json"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
		stats, err := analyzeSet(file, canvas)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		printStats(w, stats)
	}

	fmt.Fprintf(w, "\n=== Obstacle score table ===\n")
	printScoreTable(w)
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Print statistics about the question sets in a problems directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "problems",
				Usage:   "problems directory",
			},
			&cli.IntFlag{
				Name:  "canvas-size",
				Value: tiles.DefaultCanvasSize,
				Usage: "canvas the picture is scaled to before slicing (0 keeps native size)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.String("dir"), int(cmd.Int("canvas-size")))
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
