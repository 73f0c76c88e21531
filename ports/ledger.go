package ports

import (
	"context"
	"time"

	"mintpy/domain/core"
	"mintpy/domain/result"
)

// RunRecord summarizes one archived diagnostic run.
type RunRecord struct {
	RunID     string
	Method    core.Method
	CreatedAt time.Time
}

// ResultLedger provides append-only archival of computed result stores.
// File save/load is the boundary operation for single results; the
// ledger keeps a queryable history of runs.
type ResultLedger interface {
	StoreResult(ctx context.Context, runID string, store *result.Store) error
	GetResult(ctx context.Context, runID string) (*result.Store, error)
	ListRuns(ctx context.Context, method core.Method, limit int) ([]RunRecord, error)
}
