// Command validate checks every question set in a problems directory. For
// each questions_<id>.json it verifies:
//   - JSON structure and required fields
//   - Coverage of squares 1..16 with non-empty questions and answers
//   - A non-empty obstacle answer
//   - A decodable image_<id>.png large enough to slice into a 4x4 grid
//
// Hints on ordinary squares and missing hints on hint squares are reported as
// warnings. The command exits with a non-zero status if any set is invalid.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/obstacle-course/game/config"
	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/tiles"
)

// ValidationResult captures the outcome of validating a single question set.
// Info holds the summary lines printed for valid sets.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// questionSetID extracts <id> from questions_<id>.json
func questionSetID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(strings.TrimPrefix(name, "questions_"), ".json")
}

// validateQuestionSet loads and validates one question file and the picture
// stored next to it. canvas is the slicing canvas used by the server.
func validateQuestionSet(path string, canvas int) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	id := questionSetID(path)
	if err := config.ValidateID(id); err != nil {
		result.fail("Invalid question set id: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	set, err := engine.ParseQuestionSet(data)
	if err != nil {
		result.fail("Invalid question set: %v", err)
	} else {
		checkHints(set, &result)
	}

	imagePath := filepath.Join(filepath.Dir(path), "image_"+id+".png")
	var tileSet *tiles.Set
	if _, err := os.Stat(imagePath); err != nil {
		result.fail("Missing image: %s", filepath.Base(imagePath))
	} else if tileSet, err = tiles.LoadFile(imagePath, canvas); err != nil {
		result.fail("Unusable image: %v", err)
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", set.Name),
			fmt.Sprintf("✓ Questions: %d", len(set.Questions)),
			fmt.Sprintf("✓ Hints: %d/%d", set.HintCount(), engine.SquareCount-engine.FirstHintSquare+1),
			fmt.Sprintf("✓ Image: %s, tiles %dx%d", tileSet.Format, tileSet.TileWidth, tileSet.TileHeight),
		)
	}
	return result
}

// checkHints warns about hints that will never be shown and hint squares
// that have nothing to reveal
func checkHints(set *engine.QuestionSet, result *ValidationResult) {
	for square := 1; square <= engine.SquareCount; square++ {
		q, ok := set.Lookup(square)
		if !ok {
			continue
		}
		hint := strings.TrimSpace(q.Hint)
		switch {
		case !engine.IsHintSquare(square) && hint != "":
			result.warn("Square %d has a hint that is never revealed", square)
		case engine.IsHintSquare(square) && hint == "":
			result.warn("Square %d has no hint", square)
		}
	}
	if strings.TrimSpace(set.FinalHint) == "" {
		result.warn("final_hint is empty")
	}
}

// validateDir validates every questions_*.json in dir
func validateDir(dir string, canvas int) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "questions_*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding question sets: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no question sets found in %s", dir)
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateQuestionSet(file, canvas))
	}
	return results, nil
}

// report prints the results and returns whether every set is valid
func report(results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All question sets are valid!")
	} else {
		fmt.Println("❌ Some question sets have errors")
	}
	return allValid
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the question sets and pictures in a problems directory",
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
			results, err := validateDir(cmd.String("dir"), int(cmd.Int("canvas-size")))
			if err != nil {
				return err
			}
			if !report(results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
