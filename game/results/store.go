package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/obstacle-course/game/engine"
)

// Supported store drivers
const (
	DriverNone     = "none"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrRecordNotFound = errors.New("result not found")
	ErrUnknownDriver  = errors.New("unknown results driver")
)

// Record is the final scoreboard of one finished game
type Record struct {
	ID              string               `json:"id"`
	SessionID       string               `json:"session_id"`
	QuestionSetID   string               `json:"question_set_id"`
	QuestionSetName string               `json:"question_set_name,omitempty"`
	Outcome         string               `json:"outcome"`
	Scores          [engine.NumTeams]int `json:"scores"`
	Leaders         []int                `json:"leaders"`
	CorrectSquares  int                  `json:"correct_squares"`
	RevealedSquares int                  `json:"revealed_squares"`
	Actions         int                  `json:"actions"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
}

// Store persists finished game records
type Store interface {
	// Save stores a record, assigning an ID when it has none
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, most recently finished first
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record
	Delete(ctx context.Context, id string) error

	Close() error
}

// Options selects and configures a store backend
type Options struct {
	Driver string
	Path   string // directory for file, database file for sqlite
	DSN    string // postgres connection string
}

// Open creates the store for the configured driver. The none driver returns a nil store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverFile:
		return NewFileStore(opts.Path)
	case DriverSQLite:
		return NewSQLiteStore(ctx, opts.Path)
	case DriverPostgres:
		return NewPostgresStore(ctx, opts.DSN)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
}

func prepare(record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.FinishedAt.IsZero() {
		record.FinishedAt = time.Now()
	}
	if record.Leaders == nil {
		record.Leaders = engine.Leaders(record.Scores)
	}
	return nil
}

// encodeScores renders the slice columns stored as JSON text
func encodeScores(record *Record) (string, string, error) {
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return "", "", err
	}
	leaders, err := json.Marshal(record.Leaders)
	if err != nil {
		return "", "", err
	}
	return string(scores), string(leaders), nil
}

func decodeScores(record *Record, scores, leaders string) error {
	if err := json.Unmarshal([]byte(scores), &record.Scores); err != nil {
		return fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal([]byte(leaders), &record.Leaders); err != nil {
		return fmt.Errorf("decode leaders: %w", err)
	}
	return nil
}
