package result

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintpy/domain/core"
)

func gridTable(t *testing.T, key string, values []float64, shape ...int) Table {
	t.Helper()
	table, err := NewGridTable(key, values, shape...)
	require.NoError(t, err)
	return table
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "temp__rf__ale", Key(core.FeatureKey("temp"), "rf", core.MethodALE))
	pair := core.FeaturePair{First: "a", Second: "b"}
	assert.Equal(t, "a__b__rf__hstat", Key(pair, "rf", core.MethodHStatistic))
	assert.Equal(t, "temp__bin_values", BinKey(core.FeatureKey("temp")))
}

func TestGridTableShapeMismatch(t *testing.T) {
	_, err := NewGridTable("x", []float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestTabularTableRaggedRow(t *testing.T) {
	_, err := NewTabularTable("x", []string{"a", "b"}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestStoreDuplicateKey(t *testing.T) {
	store := NewStore(Metadata{Method: core.MethodALE, ModelOutput: core.OutputRaw})
	require.NoError(t, store.Add(gridTable(t, "k", []float64{1})))
	assert.Error(t, store.Add(gridTable(t, "k", []float64{2})))
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(Metadata{
		Method:      core.MethodALE,
		ModelOutput: core.OutputProbability,
		ModelsUsed:  []core.ModelKey{"rf", "lr"},
		Dimension:   core.Dimension1D,
	})
	require.NoError(t, store.Add(gridTable(t, "temp__rf__ale", []float64{1, 2, 3, 4}, 2, 2)))
	require.NoError(t, store.Add(gridTable(t, "temp__bin_values", []float64{0.5, 1.5})))

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, store.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, store.Meta, loaded.Meta)
	assert.Equal(t, store.Keys(), loaded.Keys())
	original, _ := store.Get("temp__rf__ale")
	restored, _ := loaded.Get("temp__rf__ale")
	assert.Equal(t, original, restored)
}

func TestStoreMarshalPreservesOrder(t *testing.T) {
	store := NewStore(Metadata{Method: core.MethodPD, ModelOutput: core.OutputRaw})
	keys := []string{"z", "a", "m"}
	for _, k := range keys {
		require.NoError(t, store.Add(gridTable(t, k, []float64{1})))
	}
	data, err := json.Marshal(store)
	require.NoError(t, err)

	var restored Store
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, keys, restored.Keys())
}

func TestMergeRejectsMismatchedSessions(t *testing.T) {
	a := NewStore(Metadata{Method: core.MethodALE, ModelOutput: core.OutputRaw})
	b := NewStore(Metadata{Method: core.MethodALE, ModelOutput: core.OutputProbability})
	assert.Error(t, a.Merge(b))

	c := NewStore(Metadata{Method: core.MethodPD, ModelOutput: core.OutputRaw})
	assert.Error(t, a.Merge(c))
}

func TestMergeUnionsModels(t *testing.T) {
	a := NewStore(Metadata{Method: core.MethodALE, ModelOutput: core.OutputRaw, ModelsUsed: []core.ModelKey{"rf"}})
	require.NoError(t, a.Add(gridTable(t, "x__rf__ale", []float64{1})))

	b := NewStore(Metadata{Method: core.MethodALE, ModelOutput: core.OutputRaw, ModelsUsed: []core.ModelKey{"rf", "lr"}})
	require.NoError(t, b.Add(gridTable(t, "x__lr__ale", []float64{2})))

	require.NoError(t, a.Merge(b))
	assert.Equal(t, []core.ModelKey{"rf", "lr"}, a.Meta.ModelsUsed)
	assert.Equal(t, 2, a.Len())
}

func TestMetadataFromMapRejectsUnknownKeys(t *testing.T) {
	_, err := MetadataFromMap(map[string]any{"model_output": "raw", "bogus": 1})
	assert.True(t, core.IsConfiguration(err))
}

func TestMetadataFromMap(t *testing.T) {
	md, err := MetadataFromMap(map[string]any{
		"model_output":  "probability",
		"models_used":   []string{"rf"},
		"method":        "ale",
		"dimension":     "1D",
		"evaluation_fn": "auc",
	})
	require.NoError(t, err)
	assert.Equal(t, core.OutputProbability, md.ModelOutput)
	assert.Equal(t, []core.ModelKey{"rf"}, md.ModelsUsed)
	assert.Equal(t, core.MethodALE, md.Method)
	assert.Equal(t, core.Dimension1D, md.Dimension)
	assert.Equal(t, "auc", md.EvaluationFn)
}
