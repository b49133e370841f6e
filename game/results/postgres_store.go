package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps records in PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and creates the schema
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
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
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL
        )
    `
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_game_results_finished ON game_results (finished_at DESC)`); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Save inserts or updates a record
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	if err := prepare(record); err != nil {
		return err
	}
	scores, leaders, err := encodeScores(record)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	query := `
        INSERT INTO game_results (
            id, session_id, question_set_id, question_set_name, outcome,
            scores_json, leaders_json, correct_squares, revealed_squares, actions,
            started_at, finished_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO UPDATE SET
            outcome = EXCLUDED.outcome,
            scores_json = EXCLUDED.scores_json,
            leaders_json = EXCLUDED.leaders_json,
            correct_squares = EXCLUDED.correct_squares,
            revealed_squares = EXCLUDED.revealed_squares,
            actions = EXCLUDED.actions,
            finished_at = EXCLUDED.finished_at
    `
	_, err = s.db.Exec(ctx, query,
		record.ID, record.SessionID, record.QuestionSetID, record.QuestionSetName, record.Outcome,
		scores, leaders, record.CorrectSquares, record.RevealedSquares, record.Actions,
		record.StartedAt, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

const postgresColumns = `id, session_id, question_set_id, question_set_name, outcome,
    scores_json, leaders_json, correct_squares, revealed_squares, actions,
    started_at, finished_at`

func scanPostgresRecord(row pgx.Row) (*Record, error) {
	var record Record
	var scores, leaders string

	err := row.Scan(
		&record.ID, &record.SessionID, &record.QuestionSetID, &record.QuestionSetName, &record.Outcome,
		&scores, &leaders, &record.CorrectSquares, &record.RevealedSquares, &record.Actions,
		&record.StartedAt, &record.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeScores(&record, scores, leaders); err != nil {
		return nil, err
	}
	return &record, nil
}

// Get retrieves a record by ID
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+postgresColumns+` FROM game_results WHERE id = $1`, id)
	record, err := scanPostgresRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return record, nil
}

// List returns the most recently finished records
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + postgresColumns + ` FROM game_results ORDER BY finished_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes a record
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM game_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
