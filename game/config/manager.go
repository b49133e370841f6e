package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/service"
	"github.com/wricardo/obstacle-course/game/tiles"
)

var (
	ErrQuestionSetNotFound  = service.ErrQuestionSetNotFound
	ErrInvalidQuestionSetID = errors.New("question set id must be numeric")
	ErrImageNotFound        = errors.New("question set image not found")
	ErrInvalidQuestionSet   = engine.ErrInvalidQuestionSet
)

const (
	questionsPrefix = "questions_"
	imagePrefix     = "image_"
)

// Manager loads question sets and their pictures from a problems directory.
// A set with id N lives in questions_N.json next to image_N.png.
type Manager struct {
	problemsDir string
	canvasSize  int
	sets        map[string]*engine.QuestionSet
	tiles       map[string]*tiles.Set
	mu          sync.RWMutex
}

// NewManager creates a question bank over problemsDir. Images are scaled to
// canvasSize before slicing; 0 keeps their native size.
func NewManager(problemsDir string, canvasSize int) (*Manager, error) {
	info, err := os.Stat(problemsDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("problems directory does not exist: %s", problemsDir)
	}
	if canvasSize < 0 {
		return nil, fmt.Errorf("canvas size must not be negative, got %d", canvasSize)
	}

	return &Manager{
		problemsDir: problemsDir,
		canvasSize:  canvasSize,
		sets:        make(map[string]*engine.QuestionSet),
		tiles:       make(map[string]*tiles.Set),
	}, nil
}

// ValidateID checks that a question set id is a non-empty run of digits
func ValidateID(id string) error {
	if id == "" {
		return ErrInvalidQuestionSetID
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidQuestionSetID, id)
		}
	}
	return nil
}

// QuestionsPath returns the question file path for an id
func (m *Manager) QuestionsPath(id string) string {
	return filepath.Join(m.problemsDir, questionsPrefix+id+".json")
}

// ImagePath returns the picture path for an id
func (m *Manager) ImagePath(id string) string {
	return filepath.Join(m.problemsDir, imagePrefix+id+".png")
}

// LoadQuestionSet loads and validates a question set by id. The picture
// must exist too, otherwise the set is not playable.
func (m *Manager) LoadQuestionSet(id string) (*engine.QuestionSet, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	// Check cache first
	if set, exists := m.sets[id]; exists {
		m.mu.RUnlock()
		return set, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if set, exists := m.sets[id]; exists {
		return set, nil
	}

	data, err := os.ReadFile(m.QuestionsPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionSetNotFound, id)
		}
		return nil, fmt.Errorf("failed to read question set: %w", err)
	}
	if _, err := os.Stat(m.ImagePath(id)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, m.ImagePath(id))
	}

	set, err := engine.ParseQuestionSet(data)
	if err != nil {
		if errors.Is(err, engine.ErrMissingField) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuestionSet, err)
		}
		return nil, err
	}
	set.ID = id

	m.sets[id] = set
	return set, nil
}

// LoadTiles decodes and slices the picture of a question set
func (m *Manager) LoadTiles(id string) (*tiles.Set, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if set, exists := m.tiles[id]; exists {
		m.mu.RUnlock()
		return set, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if set, exists := m.tiles[id]; exists {
		return set, nil
	}

	path := m.ImagePath(id)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	set, err := tiles.LoadFile(path, m.canvasSize)
	if err != nil {
		return nil, err
	}

	m.tiles[id] = set
	return set, nil
}

// ListQuestionSets returns information about all loadable question sets, sorted by id
func (m *Manager) ListQuestionSets() ([]*service.QuestionSetInfo, error) {
	entries, err := os.ReadDir(m.problemsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems directory: %w", err)
	}

	var infos []*service.QuestionSetInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, questionsPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		id := strings.TrimSuffix(strings.TrimPrefix(name, questionsPrefix), ".json")
		set, err := m.LoadQuestionSet(id)
		if err != nil {
			// Skip invalid or incomplete sets
			continue
		}

		infos = append(infos, &service.QuestionSetInfo{
			ID:          id,
			Filename:    name,
			Name:        set.Name,
			Description: set.Description,
			Questions:   len(set.Questions),
			HintCount:   set.HintCount(),
			HasImage:    true,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return lessID(infos[i].ID, infos[j].ID)
	})
	return infos, nil
}

// lessID orders numeric ids by value, then lexically
func lessID(a, b string) bool {
	ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		return len(ta) < len(tb)
	}
	if ta != tb {
		return ta < tb
	}
	return a < b
}

// SaveQuestionSet validates a question set and writes it to disk. The
// picture is managed separately and must be placed next to it.
func (m *Manager) SaveQuestionSet(id string, set *engine.QuestionSet) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := engine.ValidateQuestionSet(set); err != nil {
		return err
	}

	stored := *set
	stored.ID = ""
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal question set: %w", err)
	}
	if err := os.WriteFile(m.QuestionsPath(id), data, 0644); err != nil {
		return fmt.Errorf("failed to write question set: %w", err)
	}

	stored.ID = id
	m.mu.Lock()
	m.sets[id] = &stored
	m.mu.Unlock()
	return nil
}

// RefreshCache drops all cached question sets and tiles
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sets = make(map[string]*engine.QuestionSet)
	m.tiles = make(map[string]*tiles.Set)
}
