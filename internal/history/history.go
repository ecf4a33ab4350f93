// Package history provides PostgreSQL persistence for pipeline run results.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apereira/docstamp/internal/pipeline"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the runs table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id            BIGSERIAL PRIMARY KEY,
			success       BOOLEAN NOT NULL,
			run_at        TIMESTAMPTZ NOT NULL,
			input_file    TEXT NOT NULL,
			text_length   INTEGER,
			summary       TEXT,
			qr_code_path  TEXT,
			final_pdf_path TEXT,
			email_sent    BOOLEAN NOT NULL DEFAULT FALSE,
			failed_stage  TEXT,
			error         TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// SaveResult stores one run result and returns its row ID.
func (s *Store) SaveResult(ctx context.Context, result *pipeline.RunResult) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO runs (success, run_at, input_file, text_length, summary,
		                   qr_code_path, final_pdf_path, email_sent, failed_stage, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		result.Success, result.Timestamp, result.InputFile, result.TextLength,
		result.Summary, result.QRCodePath, result.FinalPDFPath, result.EmailSent,
		string(result.FailedStage), result.Error,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save run result: %w", err)
	}
	return id, nil
}

// Run is a stored run record.
type Run struct {
	ID           int64     `json:"id"`
	Success      bool      `json:"success"`
	RunAt        time.Time `json:"run_at"`
	InputFile    string    `json:"input_file"`
	TextLength   int       `json:"text_length"`
	Summary      string    `json:"summary"`
	QRCodePath   string    `json:"qr_code_path"`
	FinalPDFPath string    `json:"final_pdf_path"`
	EmailSent    bool      `json:"email_sent"`
	FailedStage  string    `json:"failed_stage,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// GetRun retrieves a stored run by row ID. Returns nil when no such run
// exists.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, success, run_at, input_file, COALESCE(text_length, 0),
		        COALESCE(summary, ''), COALESCE(qr_code_path, ''),
		        COALESCE(final_pdf_path, ''), email_sent,
		        COALESCE(failed_stage, ''), COALESCE(error, '')
		 FROM runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.Success, &run.RunAt, &run.InputFile, &run.TextLength,
		&run.Summary, &run.QRCodePath, &run.FinalPDFPath, &run.EmailSent,
		&run.FailedStage, &run.Error)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// RunFilters holds optional filters for listing runs.
type RunFilters struct {
	InputFile   string
	FailedStage string
	OnlyFailed  bool
	Limit       int
}

// ListRuns retrieves recent runs, newest first, with optional filters.
func (s *Store) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, success, run_at, input_file, COALESCE(text_length, 0),
		       COALESCE(summary, ''), COALESCE(qr_code_path, ''),
		       COALESCE(final_pdf_path, ''), email_sent,
		       COALESCE(failed_stage, ''), COALESCE(error, '')
		FROM runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.InputFile != "" {
		query += fmt.Sprintf(" AND input_file ILIKE $%d", argNum)
		args = append(args, "%"+filters.InputFile+"%")
		argNum++
	}
	if filters.FailedStage != "" {
		query += fmt.Sprintf(" AND failed_stage = $%d", argNum)
		args = append(args, filters.FailedStage)
		argNum++
	}
	if filters.OnlyFailed {
		query += " AND NOT success"
	}

	query += fmt.Sprintf(" ORDER BY run_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Success, &run.RunAt, &run.InputFile,
			&run.TextLength, &run.Summary, &run.QRCodePath, &run.FinalPDFPath,
			&run.EmailSent, &run.FailedStage, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
