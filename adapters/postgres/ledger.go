// Package postgres archives result stores in a PostgreSQL ledger.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagnostic_runs (
	run_id     UUID PRIMARY KEY,
	method     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS diagnostic_runs_method_idx ON diagnostic_runs (method, created_at DESC);
`

// Ledger implements ports.ResultLedger over a diagnostic_runs table.
// Stores are archived as their JSON encoding, which already preserves
// table order.
type Ledger struct {
	db *sqlx.DB
}

var _ ports.ResultLedger = (*Ledger)(nil)

// Open connects to the database and ensures the schema exists.
func Open(url string) (*Ledger, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// NewLedger wraps an existing connection, assuming the schema exists.
func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// Close releases the database connection.
func (l *Ledger) Close() error { return l.db.Close() }

// NewRunID mints a run identifier.
func NewRunID() string { return uuid.NewString() }

// StoreResult archives a store under runID. The ledger is append-only:
// an existing run is never overwritten.
func (l *Ledger) StoreResult(ctx context.Context, runID string, store *result.Store) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("run id must be a UUID: %w", err)
	}
	payload, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to encode result store: %w", err)
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO diagnostic_runs (run_id, method, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO NOTHING
	`, id, string(store.Meta.Method), payload)
	if err != nil {
		return fmt.Errorf("failed to archive run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s already archived", runID)
	}
	return nil
}

// GetResult loads an archived store.
func (l *Ledger) GetResult(ctx context.Context, runID string) (*result.Store, error) {
	var payload []byte
	err := l.db.GetContext(ctx, &payload, `
		SELECT payload FROM diagnostic_runs WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	var store result.Store
	if err := json.Unmarshal(payload, &store); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &store, nil
}

// ListRuns returns archived runs newest first, optionally filtered by
// method.
func (l *Ledger) ListRuns(ctx context.Context, method core.Method, limit int) ([]ports.RunRecord, error) {
	query := `SELECT run_id, method, created_at FROM diagnostic_runs`
	args := []any{}
	if method != "" {
		query += ` WHERE method = $1`
		args = append(args, string(method))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []ports.RunRecord
	for rows.Next() {
		var id uuid.UUID
		var method string
		var createdAt time.Time
		if err := rows.Scan(&id, &method, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, ports.RunRecord{
			RunID:     id.String(),
			Method:    core.Method(method),
			CreatedAt: createdAt,
		})
	}
	return out, rows.Err()
}
