package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database file and its schema
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS game_results (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_set_id TEXT NOT NULL,
		question_set_name TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		scores_json TEXT NOT NULL,
		leaders_json TEXT NOT NULL,
		correct_squares INTEGER NOT NULL,
		revealed_squares INTEGER NOT NULL,
		actions INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_game_results_finished ON game_results(finished_at);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save inserts or replaces a record
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	if err := prepare(record); err != nil {
		return err
	}
	scores, leaders, err := encodeScores(record)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO game_results (
			id, session_id, question_set_id, question_set_name, outcome,
			scores_json, leaders_json, correct_squares, revealed_squares, actions,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.SessionID, record.QuestionSetID, record.QuestionSetName, record.Outcome,
		scores, leaders, record.CorrectSquares, record.RevealedSquares, record.Actions,
		record.StartedAt.UnixMilli(), record.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

const sqliteColumns = `id, session_id, question_set_id, question_set_name, outcome,
	scores_json, leaders_json, correct_squares, revealed_squares, actions,
	started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*Record, error) {
	var record Record
	var scores, leaders string
	var startedAt, finishedAt int64

	err := row.Scan(
		&record.ID, &record.SessionID, &record.QuestionSetID, &record.QuestionSetName, &record.Outcome,
		&scores, &leaders, &record.CorrectSquares, &record.RevealedSquares, &record.Actions,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeScores(&record, scores, leaders); err != nil {
		return nil, err
	}
	record.StartedAt = time.UnixMilli(startedAt)
	record.FinishedAt = time.UnixMilli(finishedAt)
	return &record, nil
}

// Get retrieves a record by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM game_results WHERE id = ?`, id)
	record, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan result row: %w", err)
	}
	return record, nil
}

// List returns the most recently finished records
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM game_results ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes a record
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM game_results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
