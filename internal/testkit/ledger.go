package testkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/ports"
)

// MemoryLedger is an in-memory ResultLedger for tests.
type MemoryLedger struct {
	mu      sync.Mutex
	stores  map[string]*result.Store
	records []ports.RunRecord
}

var _ ports.ResultLedger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stores: make(map[string]*result.Store)}
}

func (l *MemoryLedger) StoreResult(_ context.Context, runID string, store *result.Store) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.stores[runID]; dup {
		return fmt.Errorf("run %q already archived", runID)
	}
	l.stores[runID] = store
	l.records = append(l.records, ports.RunRecord{RunID: runID, Method: store.Meta.Method, CreatedAt: time.Now()})
	return nil
}

func (l *MemoryLedger) GetResult(_ context.Context, runID string) (*result.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.stores[runID]
	if !ok {
		return nil, fmt.Errorf("run %q not found", runID)
	}
	return s, nil
}

func (l *MemoryLedger) ListRuns(_ context.Context, method core.Method, limit int) ([]ports.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ports.RunRecord
	for i := len(l.records) - 1; i >= 0; i-- {
		if method != "" && l.records[i].Method != method {
			continue
		}
		out = append(out, l.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
