// Package store persists audit runs and their findings in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"certaudit/internal/config"
	apperrors "certaudit/internal/errors"
	"certaudit/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	run_id      UUID PRIMARY KEY,
	folders     TEXT[] NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	records     INTEGER NOT NULL,
	errors      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_findings (
	id         BIGSERIAL PRIMARY KEY,
	run_id     UUID NOT NULL REFERENCES audit_runs(run_id) ON DELETE CASCADE,
	check_name TEXT NOT NULL,
	report_key TEXT NOT NULL,
	message    TEXT NOT NULL,
	group_id   INTEGER,
	ref_key    TEXT,
	severity   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_findings_run_idx ON audit_findings(run_id);
`

// Run is the summary row of one audit.
type Run struct {
	RunID     string        `json:"run_id"`
	Folders   []string      `json:"folders"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Records   int           `json:"records"`
	Errors    int           `json:"errors"`
}

// Store wraps the database handle.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database named by cfg.DSN and creates the schema.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to connect to database", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open handle.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With(slog.String("component", "store"))}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return storageError("failed to create schema", err)
	}
	return nil
}

// SaveRun stores a run and its findings in one transaction. Findings are
// bulk loaded with COPY.
func (s *Store) SaveRun(ctx context.Context, run Run, findings []domain.Finding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_runs (run_id, folders, started_at, duration_ms, records, errors)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.RunID, pq.Array(run.Folders), run.StartedAt, run.Duration.Milliseconds(), run.Records, run.Errors,
	); err != nil {
		return storageError("failed to insert run", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("audit_findings",
		"run_id", "check_name", "report_key", "message", "group_id", "ref_key", "severity"))
	if err != nil {
		return storageError("failed to prepare copy", err)
	}
	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx, findingArgs(run.RunID, f)...); err != nil {
			stmt.Close()
			return storageError("failed to copy finding", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return storageError("failed to flush copy", err)
	}
	if err := stmt.Close(); err != nil {
		return storageError("failed to close copy", err)
	}

	if err := tx.Commit(); err != nil {
		return storageError("failed to commit run", err)
	}

	s.logger.InfoContext(ctx, "run stored",
		slog.String("run_id", run.RunID),
		slog.Int("findings", len(findings)))
	return nil
}

// Runs lists the most recent runs first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, folders, started_at, duration_ms, records, errors
		 FROM audit_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storageError("failed to list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.RunID, pq.Array(&r.Folders), &r.StartedAt, &ms, &r.Records, &r.Errors); err != nil {
			return nil, storageError("failed to scan run", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list runs", err)
	}
	return runs, nil
}

// Findings returns the findings of a run in insertion order. An unknown
// run is a NOT_FOUND error.
func (s *Store) Findings(ctx context.Context, runID string) ([]domain.Finding, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM audit_runs WHERE run_id = $1)`, runID).Scan(&exists); err != nil {
		return nil, storageError("failed to look up run", err)
	}
	if !exists {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", runID))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT check_name, report_key, message, COALESCE(group_id, 0), COALESCE(ref_key, ''), severity
		 FROM audit_findings WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, storageError("failed to load findings", err)
	}
	defer rows.Close()

	var out []domain.Finding
	for rows.Next() {
		var f domain.Finding
		var check, severity string
		if err := rows.Scan(&check, &f.ReportKey, &f.Message, &f.Group, &f.RefKey, &severity); err != nil {
			return nil, storageError("failed to scan finding", err)
		}
		f.Check = domain.Check(check)
		f.Severity = domain.Severity(severity)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to load findings", err)
	}
	return out, nil
}

// findingArgs maps a finding to the COPY columns. Zero group and empty
// reference key are stored as NULL.
func findingArgs(runID string, f domain.Finding) []interface{} {
	var group, ref interface{}
	if f.Group != 0 {
		group = f.Group
	}
	if f.RefKey != "" {
		ref = f.RefKey
	}
	return []interface{}{runID, string(f.Check), f.ReportKey, f.Message, group, ref, string(f.Severity)}
}

// storageError wraps err and, for server errors, records the SQLSTATE.
func storageError(msg string, err error) error {
	appErr := apperrors.NewStorageError(msg, err)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		appErr.WithContext("sqlstate", string(pqErr.Code)).
			WithContext("detail", strings.TrimSpace(pqErr.Detail))
	}
	return appErr
}
