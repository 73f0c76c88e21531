package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintpy/domain/core"
	"mintpy/domain/result"
)

func rankedStore(t *testing.T) *result.Store {
	t.Helper()
	store := result.NewStore(result.Metadata{
		ModelOutput: core.OutputProbability,
		ModelsUsed:  []core.ModelKey{"rf"},
		Method:      core.MethodPermutationImportance,
		Direction:   core.DirectionBackward,
	})
	ranking, err := result.NewGridTable("ranking__rf__permutation_importance", []float64{0.41, 0.12})
	require.NoError(t, err)
	ranking.Labels = []string{"pressure", "humidity"}
	require.NoError(t, store.Add(ranking))

	ias, err := result.NewGridTable("ias__rf__ias", []float64{0.07})
	require.NoError(t, err)
	require.NoError(t, store.Add(ias))
	return store
}

func TestMarkdownMetadata(t *testing.T) {
	md := Markdown(rankedStore(t))

	assert.Contains(t, md, "# Diagnostic results: permutation_importance")
	assert.Contains(t, md, "- **Model output:** probability")
	assert.Contains(t, md, "- **Models:** rf")
	assert.Contains(t, md, "- **Direction:** backward")
}

func TestMarkdownRankingRows(t *testing.T) {
	md := Markdown(rankedStore(t))

	assert.Contains(t, md, "| rank | name | score |")
	assert.Contains(t, md, "| 1 | `pressure` | 0.410000 |")
	assert.Contains(t, md, "| 2 | `humidity` | 0.120000 |")
}

func TestMarkdownSingleValue(t *testing.T) {
	md := Markdown(rankedStore(t))
	assert.Contains(t, md, "Value: **0.070000**")
}

func TestMarkdownTabularTable(t *testing.T) {
	store := result.NewStore(result.Metadata{
		ModelOutput: core.OutputRaw,
		ModelsUsed:  []core.ModelKey{"m"},
		Method:      core.MethodContributions,
	})
	table, err := result.NewTabularTable("contributions__m__contributions",
		[]string{"a", "bias"}, [][]float64{{0.5, 1.25}})
	require.NoError(t, err)
	require.NoError(t, store.Add(table))

	md := Markdown(store)
	assert.Contains(t, md, "| a | bias |")
	assert.Contains(t, md, "| 0.500000 | 1.250000 |")
}

func TestMarkdownSummarizesLargeGrids(t *testing.T) {
	store := result.NewStore(result.Metadata{
		ModelOutput: core.OutputRaw,
		ModelsUsed:  []core.ModelKey{"m"},
		Method:      core.MethodALE,
	})
	values := make([]float64, 200)
	table, err := result.NewGridTable("x__m__ale", values, 10, 20)
	require.NoError(t, err)
	require.NoError(t, store.Add(table))

	md := Markdown(store)
	assert.Contains(t, md, "Grid of shape [10 20] (200 values).")
	assert.NotContains(t, md, "0.000000", "large grids are summarized, not dumped")
}

func TestKeysSurviveHTMLRendering(t *testing.T) {
	md := Markdown(rankedStore(t))
	assert.Contains(t, md, "## `ranking__rf__permutation_importance`")

	// The double underscores in store keys must not turn into emphasis.
	page := string(HTML(rankedStore(t)))
	assert.Contains(t, page, "ranking__rf__permutation_importance")
	assert.Contains(t, page, "ias__rf__ias")
	assert.NotContains(t, page, "<strong>rf</strong>")
}

func TestHTMLIsCompletePage(t *testing.T) {
	page := string(HTML(rankedStore(t)))
	assert.True(t, strings.Contains(page, "<html"), "want a full document, got: %.80s", page)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "pressure")
}
