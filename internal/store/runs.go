// Package store persists run history to PostgreSQL. Full engine results
// stay in memory on the service; the store keeps only the summary rows
// that power the run listing, so a restart loses detail but not history.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrRunNotFound is returned when a run ID has no history row.
var ErrRunNotFound = errors.New("run not found")

// Run kinds.
const (
	KindValidation     = "validation"
	KindReconciliation = "reconciliation"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id               UUID PRIMARY KEY,
    kind             TEXT NOT NULL,
    dataset_name     TEXT NOT NULL,
    status           TEXT NOT NULL,
    total_rows       INTEGER NOT NULL DEFAULT 0,
    error_rows       INTEGER NOT NULL DEFAULT 0,
    warning_rows     INTEGER NOT NULL DEFAULT 0,
    duplicate_rows   INTEGER NOT NULL DEFAULT 0,
    formatting_rows  INTEGER NOT NULL DEFAULT 0,
    missing_records  INTEGER NOT NULL DEFAULT 0,
    extra_records    INTEGER NOT NULL DEFAULT 0,
    mismatch_records INTEGER NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC);
`

// EnsureSchema creates the runs table if it does not exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure runs schema: %w", err)
	}
	return nil
}

// RunRecord is one row of run history. Validation runs fill the row
// counters; reconciliation runs fill the record counters.
type RunRecord struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	DatasetName     string    `json:"dataset_name"`
	Status          string    `json:"status"`
	TotalRows       int       `json:"total_rows"`
	ErrorRows       int       `json:"error_rows"`
	WarningRows     int       `json:"warning_rows"`
	DuplicateRows   int       `json:"duplicate_rows"`
	FormattingRows  int       `json:"formatting_rows"`
	MissingRecords  int       `json:"missing_records"`
	ExtraRecords    int       `json:"extra_records"`
	MismatchRecords int       `json:"mismatch_records"`
	CreatedAt       time.Time `json:"created_at"`
}

// RunStore reads and writes run history rows.
type RunStore struct {
	db DBTX
}

// NewRunStore wraps a database handle.
func NewRunStore(db DBTX) *RunStore {
	return &RunStore{db: db}
}

// InsertRun records a completed run. CreatedAt is assigned by the
// database when zero.
func (s *RunStore) InsertRun(ctx context.Context, r RunRecord) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO runs (
			id, kind, dataset_name, status,
			total_rows, error_rows, warning_rows, duplicate_rows, formatting_rows,
			missing_records, extra_records, mismatch_records, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.Kind, r.DatasetName, r.Status,
		r.TotalRows, r.ErrorRows, r.WarningRows, r.DuplicateRows, r.FormattingRows,
		r.MissingRecords, r.ExtraRecords, r.MismatchRecords, created,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *RunStore) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, kind, dataset_name, status,
		       total_rows, error_rows, warning_rows, duplicate_rows, formatting_rows,
		       missing_records, extra_records, mismatch_records, created_at
		FROM runs WHERE id = $1`, id)

	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// RecentRuns lists the most recent runs, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, kind, dataset_name, status,
		       total_rows, error_rows, warning_rows, duplicate_rows, formatting_rows,
		       missing_records, extra_records, mismatch_records, created_at
		FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func scanRun(row pgx.Row) (*RunRecord, error) {
	var r RunRecord
	var created pgtype.Timestamptz
	err := row.Scan(
		&r.ID, &r.Kind, &r.DatasetName, &r.Status,
		&r.TotalRows, &r.ErrorRows, &r.WarningRows, &r.DuplicateRows, &r.FormattingRows,
		&r.MissingRecords, &r.ExtraRecords, &r.MismatchRecords, &created,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = created.Time
	return &r, nil
}
