package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testQuestion struct {
	Square   int    `json:"square"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Hint     string `json:"hint,omitempty"`
}

func validDocument() map[string]interface{} {
	questions := make([]testQuestion, 0, 16)
	for square := 1; square <= 16; square++ {
		q := testQuestion{
			Square:   square,
			Question: fmt.Sprintf("Question %d", square),
			Answer:   fmt.Sprintf("answer %d", square),
		}
		if square >= 13 {
			q.Hint = fmt.Sprintf("hint %d", square)
		}
		questions = append(questions, q)
	}
	return map[string]interface{}{
		"name":            "Test Set",
		"description":     "Test question set",
		"questions":       questions,
		"obstacle_answer": "Lighthouse",
		"final_hint":      "It guides ships",
	}
}

func writeDocument(t *testing.T, dir, id string, doc interface{}) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal document: %v", err)
	}
	path := filepath.Join(dir, "questions_"+id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}
	return path
}

func writeImage(t *testing.T, dir, id string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "image_"+id+".png"))
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
}

func hasLine(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestValidateQuestionSet_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "1", validDocument())
	writeImage(t, dir, "1", 40, 40)

	result := validateQuestionSet(path, 0)
	if !result.Valid {
		t.Fatalf("Expected valid set, got errors: %v", result.Errors)
	}
	if result.File != "questions_1.json" {
		t.Errorf("Expected file questions_1.json, got %s", result.File)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	if !hasLine(result.Info, "Hints: 4/4") {
		t.Errorf("Expected hint summary, got %v", result.Info)
	}
	if !hasLine(result.Info, "tiles 10x10") {
		t.Errorf("Expected native tile size, got %v", result.Info)
	}
}

func TestValidateQuestionSet_CanvasResize(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "2", validDocument())
	writeImage(t, dir, "2", 40, 30)

	result := validateQuestionSet(path, 400)
	if !result.Valid {
		t.Fatalf("Expected valid set, got errors: %v", result.Errors)
	}
	if !hasLine(result.Info, "tiles 100x100") {
		t.Errorf("Expected tiles sliced from the 400 canvas, got %v", result.Info)
	}
}

func TestValidateQuestionSet_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions_3.json")
	os.WriteFile(path, []byte(`{"name": "test", invalid json}`), 0644)
	writeImage(t, dir, "3", 40, 40)

	result := validateQuestionSet(path, 0)
	if result.Valid {
		t.Fatal("Expected invalid JSON to fail")
	}
	if !hasLine(result.Errors, "Invalid question set") {
		t.Errorf("Expected parse error, got %v", result.Errors)
	}
}

func TestValidateQuestionSet_MissingFile(t *testing.T) {
	result := validateQuestionSet(filepath.Join(t.TempDir(), "questions_9.json"), 0)
	if result.Valid {
		t.Fatal("Expected missing file to fail")
	}
	if !hasLine(result.Errors, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateQuestionSet_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{"no questions", "questions"},
		{"no obstacle answer", "obstacle_answer"},
		{"no final hint", "final_hint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			doc := validDocument()
			delete(doc, tt.remove)
			path := writeDocument(t, dir, "4", doc)
			writeImage(t, dir, "4", 40, 40)

			result := validateQuestionSet(path, 0)
			if result.Valid {
				t.Fatal("Expected missing field to fail")
			}
			if !hasLine(result.Errors, tt.remove) {
				t.Errorf("Expected error naming %s, got %v", tt.remove, result.Errors)
			}
		})
	}
}

func TestValidateQuestionSet_IncompleteCoverage(t *testing.T) {
	dir := t.TempDir()
	doc := validDocument()
	doc["questions"] = doc["questions"].([]testQuestion)[:15]
	path := writeDocument(t, dir, "5", doc)
	writeImage(t, dir, "5", 40, 40)

	result := validateQuestionSet(path, 0)
	if result.Valid {
		t.Fatal("Expected 15 questions to fail")
	}
	if !hasLine(result.Errors, "expected 16 questions") {
		t.Errorf("Expected coverage error, got %v", result.Errors)
	}
}

func TestValidateQuestionSet_MissingImage(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "6", validDocument())

	result := validateQuestionSet(path, 0)
	if result.Valid {
		t.Fatal("Expected missing image to fail")
	}
	if !hasLine(result.Errors, "Missing image: image_6.png") {
		t.Errorf("Expected missing image error, got %v", result.Errors)
	}
}

func TestValidateQuestionSet_UnusableImage(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		dir := t.TempDir()
		path := writeDocument(t, dir, "7", validDocument())
		writeImage(t, dir, "7", 3, 3)

		result := validateQuestionSet(path, 0)
		if result.Valid || !hasLine(result.Errors, "too small") {
			t.Errorf("Expected too-small image to fail, got %v", result.Errors)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		dir := t.TempDir()
		path := writeDocument(t, dir, "8", validDocument())
		os.WriteFile(filepath.Join(dir, "image_8.png"), []byte("not a png"), 0644)

		result := validateQuestionSet(path, 0)
		if result.Valid || !hasLine(result.Errors, "Unusable image") {
			t.Errorf("Expected undecodable image to fail, got %v", result.Errors)
		}
	})
}

func TestValidateQuestionSet_InvalidID(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "abc", validDocument())
	writeImage(t, dir, "abc", 40, 40)

	result := validateQuestionSet(path, 0)
	if result.Valid {
		t.Fatal("Expected non-numeric id to fail")
	}
	if !hasLine(result.Errors, "Invalid question set id") {
		t.Errorf("Expected id error, got %v", result.Errors)
	}
}

func TestValidateQuestionSet_HintWarnings(t *testing.T) {
	dir := t.TempDir()
	doc := validDocument()
	questions := doc["questions"].([]testQuestion)
	questions[2].Hint = "never shown"
	questions[13].Hint = ""
	doc["final_hint"] = " "
	path := writeDocument(t, dir, "10", doc)
	writeImage(t, dir, "10", 40, 40)

	result := validateQuestionSet(path, 0)
	if !result.Valid {
		t.Fatalf("Expected hint problems to be warnings only, got %v", result.Errors)
	}
	if !hasLine(result.Warnings, "Square 3 has a hint that is never revealed") {
		t.Errorf("Expected warning for square 3, got %v", result.Warnings)
	}
	if !hasLine(result.Warnings, "Square 14 has no hint") {
		t.Errorf("Expected warning for square 14, got %v", result.Warnings)
	}
	if !hasLine(result.Warnings, "final_hint is empty") {
		t.Errorf("Expected final hint warning, got %v", result.Warnings)
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeDocument(t, dir, "1", validDocument())
	writeImage(t, dir, "1", 40, 40)
	writeDocument(t, dir, "2", validDocument())
	os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644)

	results, err := validateDir(dir, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[0].Valid || results[1].Valid {
		t.Errorf("Expected first valid and second invalid, got %v and %v", results[0].Valid, results[1].Valid)
	}
	if report(results) {
		t.Error("Expected report to flag the invalid set")
	}

	if _, err := validateDir(t.TempDir(), 0); err == nil {
		t.Error("Expected error for a directory without question sets")
	}
}

func TestNewCommand(t *testing.T) {
	dir := t.TempDir()
	writeDocument(t, dir, "1", validDocument())
	writeImage(t, dir, "1", 40, 40)

	cmd := newCommand()
	if err := cmd.Run(t.Context(), []string{"validate", "--dir", dir, "--canvas-size", "0"}); err != nil {
		t.Fatalf("Expected valid directory to pass: %v", err)
	}
}
