// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// StatusStore implements analyzer.StatusStore on Postgres, persisting one
// row per request and one per delivery leg.
type StatusStore struct {
	pool pool
}

var _ analyzer.StatusStore = (*StatusStore)(nil)

// NewStatusStore connects a status store to the given DSN.
func NewStatusStore(ctx context.Context, dsn string) (*StatusStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage.postgres_dsn is required")
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &StatusStore{pool: p}, nil
}

// NewStatusStoreWithPool wraps an existing pool. Used by tests.
func NewStatusStoreWithPool(p pool) *StatusStore {
	return &StatusStore{pool: p}
}

// Close closes the underlying connection pool.
func (s *StatusStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the status tables if they do not exist.
func (s *StatusStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analysis_requests (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			email TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS delivery_legs (
			request_id TEXT NOT NULL REFERENCES analysis_requests(id),
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			error_text TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (request_id, kind)
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// CreateRequest inserts the request row plus its initial legs.
func (s *StatusStore) CreateRequest(ctx context.Context, rec analyzer.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_requests (id, url, email, submitted_at)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := s.pool.Exec(ctx, query, rec.ID, rec.URL, rec.Email, rec.SubmittedAt); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	legQuery := `
		INSERT INTO delivery_legs (request_id, kind, state, error_text, updated_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, leg := range rec.Legs {
		if _, err := s.pool.Exec(ctx, legQuery, rec.ID, leg.Kind, leg.State, leg.ErrorText, leg.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert leg %s: %w", leg.Kind, err)
		}
	}
	return nil
}

// UpdateLeg transitions a single delivery leg.
func (s *StatusStore) UpdateLeg(
	ctx context.Context,
	requestID string,
	kind analyzer.TaskKind,
	state analyzer.LegState,
	errText string,
	at time.Time,
) error {
	query := `
		UPDATE delivery_legs
		SET state = $1, error_text = $2, updated_at = $3
		WHERE request_id = $4 AND kind = $5;
	`
	res, err := s.pool.Exec(ctx, query, state, errText, at, requestID, kind)
	if err != nil {
		return fmt.Errorf("failed to update leg: %w", err)
	}
	if res.RowsAffected() == 0 {
		return analyzer.ErrRequestNotFound
	}
	return nil
}

// GetRequest loads a request with its legs, text leg first.
func (s *StatusStore) GetRequest(ctx context.Context, requestID string) (analyzer.AnalysisRecord, error) {
	query := `
		SELECT id, url, email, submitted_at
		FROM analysis_requests
		WHERE id = $1;
	`
	var rec analyzer.AnalysisRecord
	err := s.pool.QueryRow(ctx, query, requestID).Scan(&rec.ID, &rec.URL, &rec.Email, &rec.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return analyzer.AnalysisRecord{}, analyzer.ErrRequestNotFound
		}
		return analyzer.AnalysisRecord{}, fmt.Errorf("failed to get request: %w", err)
	}

	legQuery := `
		SELECT kind, state, error_text, updated_at
		FROM delivery_legs
		WHERE request_id = $1
		ORDER BY kind DESC;
	`
	rows, err := s.pool.Query(ctx, legQuery, requestID)
	if err != nil {
		return analyzer.AnalysisRecord{}, fmt.Errorf("failed to list legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg analyzer.LegRecord
		if err := rows.Scan(&leg.Kind, &leg.State, &leg.ErrorText, &leg.UpdatedAt); err != nil {
			return analyzer.AnalysisRecord{}, fmt.Errorf("failed to scan leg row: %w", err)
		}
		rec.Legs = append(rec.Legs, leg)
	}
	if err := rows.Err(); err != nil {
		return analyzer.AnalysisRecord{}, fmt.Errorf("failed to iterate legs: %w", err)
	}
	return rec, nil
}
