package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSet(t *testing.T, dir, id string, mutate func(doc map[string]interface{}, questions []map[string]interface{})) string {
	t.Helper()
	questions := make([]map[string]interface{}, 0, 16)
	for square := 1; square <= 16; square++ {
		q := map[string]interface{}{
			"square":   square,
			"question": fmt.Sprintf("Question %d", square),
			"answer":   "ab",
		}
		if square >= 13 {
			q["hint"] = fmt.Sprintf("hint %d", square)
		}
		questions = append(questions, q)
	}
	doc := map[string]interface{}{
		"name":            "Set " + id,
		"obstacle_answer": "Great Wall",
		"final_hint":      "It is long",
	}
	if mutate != nil {
		mutate(doc, questions)
	}
	doc["questions"] = questions

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "questions_"+id+".json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writePicture(t *testing.T, dir, id string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "image_"+id+".png"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestAnalyzeSet(t *testing.T) {
	dir := t.TempDir()
	path := writeSet(t, dir, "1", func(doc map[string]interface{}, questions []map[string]interface{}) {
		questions[4]["answer"] = "a much longer answer"
		questions[0]["answer"] = "x"
		questions[1]["hint"] = "ignored"
	})
	writePicture(t, dir, "1", 42, 30)

	stats, err := analyzeSet(path, 0)
	require.NoError(t, err)

	assert.Equal(t, "1", stats.ID)
	assert.Equal(t, "Set 1", stats.Name)
	assert.Equal(t, 16, stats.Questions)
	assert.Equal(t, 4, stats.Hints)
	assert.Equal(t, 1, stats.IgnoredHints)
	assert.Equal(t, 1, stats.MinAnswer)
	assert.Equal(t, len("a much longer answer"), stats.MaxAnswer)
	assert.Equal(t, 5, stats.LongestSquare)
	assert.Equal(t, 2, stats.ObstacleWords)
	assert.Equal(t, 12*10+4*15, stats.MaxSquarePoints)
	assert.Empty(t, stats.ImageError)
	assert.Equal(t, 42, stats.ImageWidth)
	assert.Equal(t, 30, stats.ImageHeight)
	assert.Equal(t, 10, stats.TileWidth)
	assert.Equal(t, 7, stats.TileHeight)
}

func TestAnalyzeSet_Canvas(t *testing.T) {
	dir := t.TempDir()
	path := writeSet(t, dir, "2", nil)
	writePicture(t, dir, "2", 42, 30)

	stats, err := analyzeSet(path, 400)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.TileWidth)
	assert.Equal(t, 100, stats.TileHeight)
}

func TestAnalyzeSet_MissingImage(t *testing.T) {
	dir := t.TempDir()
	path := writeSet(t, dir, "3", nil)

	stats, err := analyzeSet(path, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, stats.ImageError)
	assert.Zero(t, stats.TileWidth)
}

func TestAnalyzeSet_InvalidSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions_4.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "broken"`), 0644))

	_, err := analyzeSet(path, 0)
	assert.Error(t, err)
}

func TestPrintScoreTable(t *testing.T) {
	var buf bytes.Buffer
	printScoreTable(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 18)
	assert.Equal(t, "              0 | 90", lines[1])
	assert.Equal(t, "              4 | 70", lines[5])
	assert.Equal(t, "             16 | 10", lines[17])
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "1", nil)
	writePicture(t, dir, "1", 40, 40)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions_2.json"), []byte("{}"), 0644))

	var buf bytes.Buffer
	require.NoError(t, run(&buf, dir, 0))

	out := buf.String()
	assert.Contains(t, out, "=== Analyzing questions_1.json ===")
	assert.Contains(t, out, "Image: 40x40, tiles 10x10")
	assert.Contains(t, out, "✅ Every hint square carries a hint")
	assert.Contains(t, out, "=== Analyzing questions_2.json ===")
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "=== Obstacle score table ===")
}

func TestNewCommand(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "1", nil)
	writePicture(t, dir, "1", 40, 40)

	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf
	require.NoError(t, cmd.Run(t.Context(), []string{"analyze", "--dir", dir}))
	assert.Contains(t, buf.String(), "tiles 100x100")
}
