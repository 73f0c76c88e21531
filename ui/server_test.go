package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintpy/app"
	"mintpy/domain/core"
	"mintpy/domain/result"
	"mintpy/internal/testkit"
	"mintpy/ports"
)

func toolkitWithResults(t *testing.T) *app.Toolkit {
	t.Helper()
	ds := testkit.UniformDataset(1, 100, 0, 1, "a", "b")
	models := ports.NewModelSet()
	require.NoError(t, models.Add("linear", &testkit.LinearModel{Weights: []float64{2, -1}}))
	tk, err := app.New(app.Options{Models: models, Data: ds, Log: zerolog.Nop()})
	require.NoError(t, err)

	_, err = tk.PartialDependence(context.Background(), app.EffectsRequest{NBins: 5})
	require.NoError(t, err)
	return tk
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(nil, nil, zerolog.Nop(), "test")
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetResultReturnsCachedStore(t *testing.T) {
	s := NewServer(toolkitWithResults(t), nil, zerolog.Nop(), "test")

	rec := get(t, s.Handler(), "/api/results/pd")
	require.Equal(t, http.StatusOK, rec.Code)

	var store result.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &store))
	assert.Equal(t, core.MethodPD, store.Meta.Method)
	_, ok := store.Get("a__linear__pd")
	assert.True(t, ok)
}

func TestGetResultUncachedMethod(t *testing.T) {
	s := NewServer(toolkitWithResults(t), nil, zerolog.Nop(), "test")
	rec := get(t, s.Handler(), "/api/results/ale")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResultWithoutToolkit(t *testing.T) {
	s := NewServer(nil, nil, zerolog.Nop(), "test")
	rec := get(t, s.Handler(), "/api/results/pd")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportRendersHTML(t *testing.T) {
	s := NewServer(toolkitWithResults(t), nil, zerolog.Nop(), "test")

	rec := get(t, s.Handler(), "/report/pd")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "a__linear__pd")
}

func TestRunsEndpointsWithoutLedger(t *testing.T) {
	s := NewServer(nil, nil, zerolog.Nop(), "test")
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/api/runs").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/api/runs/abc").Code)
}

func TestRunsEndpoints(t *testing.T) {
	ledger := testkit.NewMemoryLedger()
	store := result.NewStore(result.Metadata{
		ModelOutput: core.OutputRaw,
		ModelsUsed:  []core.ModelKey{"m"},
		Method:      core.MethodALE,
	})
	require.NoError(t, ledger.StoreResult(context.Background(), "run-1", store))

	s := NewServer(nil, ledger, zerolog.Nop(), "test")

	rec := get(t, s.Handler(), "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Runs []ports.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Runs, 1)
	assert.Equal(t, "run-1", listing.Runs[0].RunID)

	rec = get(t, s.Handler(), "/api/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s.Handler(), "/api/runs/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsFilterByMethod(t *testing.T) {
	ledger := testkit.NewMemoryLedger()
	for i, method := range []core.Method{core.MethodALE, core.MethodPD} {
		store := result.NewStore(result.Metadata{
			ModelOutput: core.OutputRaw,
			ModelsUsed:  []core.ModelKey{"m"},
			Method:      method,
		})
		require.NoError(t, ledger.StoreResult(context.Background(), []string{"run-a", "run-b"}[i], store))
	}
	s := NewServer(nil, ledger, zerolog.Nop(), "test")

	rec := get(t, s.Handler(), "/api/runs?method=pd")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Runs []ports.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Runs, 1)
	assert.Equal(t, core.MethodPD, listing.Runs[0].Method)
}
