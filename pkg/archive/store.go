package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one archived report.
type Record struct {
	RunID      string
	SourcePath string
	Report     any
	CreatedAt  time.Time
}

// Archiver persists finished reports.
type Archiver interface {
	Save(ctx context.Context, rec Record) error
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS meeting_reports (
	run_id      UUID PRIMARY KEY,
	source_path TEXT NOT NULL,
	report      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSQL = `
INSERT INTO meeting_reports (run_id, source_path, report, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (run_id) DO UPDATE
SET source_path = EXCLUDED.source_path, report = EXCLUDED.report, created_at = EXCLUDED.created_at`

// PostgresStore writes reports to the meeting_reports table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the meeting_reports table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating meeting_reports: %w", err)
	}
	return nil
}

// Save implements Archiver. Saving the same run twice replaces the row.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	if _, err := s.pool.Exec(ctx, insertSQL, rec.RunID, rec.SourcePath, body, created); err != nil {
		return fmt.Errorf("inserting report %s: %w", rec.RunID, err)
	}
	return nil
}

// Load returns the raw report JSON for runID.
func (s *PostgresStore) Load(ctx context.Context, runID string) (json.RawMessage, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM meeting_reports WHERE run_id = $1`, runID).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", runID, err)
	}
	return body, nil
}
