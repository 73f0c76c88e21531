package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mintpy/domain/core"
	"mintpy/domain/result"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "temp,wind,label\n1.5,3,1\n2.5,4,0\n")
	ds, err := NewDataReader(path).Read(ReaderOptions{TargetColumn: "label"})
	require.NoError(t, err)

	assert.Equal(t, []core.FeatureKey{"temp", "wind"}, ds.Features())
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []float64{1, 0}, ds.Targets())

	col, err := ds.Column("temp")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, col)
}

func TestReadCSVSkipsNonNumericColumns(t *testing.T) {
	path := writeCSV(t, "station,temp\nKORD,1.5\nKLAX,2.5\n")
	ds, err := NewDataReader(path).Read(ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, []core.FeatureKey{"temp"}, ds.Features())
}

func TestReadCSVNonNumericTarget(t *testing.T) {
	path := writeCSV(t, "temp,label\n1.5,yes\n2.5,no\n")
	_, err := NewDataReader(path).Read(ReaderOptions{TargetColumn: "label"})
	assert.ErrorContains(t, err, "not numeric")
}

func TestReadCSVMissingTarget(t *testing.T) {
	path := writeCSV(t, "temp\n1.5\n2.5\n")
	_, err := NewDataReader(path).Read(ReaderOptions{TargetColumn: "label"})
	assert.ErrorContains(t, err, "not found")
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv")).Read(ReaderOptions{})
	assert.ErrorContains(t, err, "not found")
}

func TestReadHeaderOnly(t *testing.T) {
	path := writeCSV(t, "temp,wind\n")
	_, err := NewDataReader(path).Read(ReaderOptions{})
	assert.ErrorContains(t, err, "header row")
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"temp", "label"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1.5, 1.0}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{2.5, 0.0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := NewDataReader(path).Read(ReaderOptions{TargetColumn: "label"})
	require.NoError(t, err)
	assert.Equal(t, []core.FeatureKey{"temp"}, ds.Features())
	assert.Equal(t, []float64{1, 0}, ds.Targets())
}

func TestExportWorkbookLayout(t *testing.T) {
	store := result.NewStore(result.Metadata{
		ModelOutput: core.OutputRaw,
		ModelsUsed:  []core.ModelKey{"m"},
		Method:      core.MethodALEVariance,
	})
	ranking, err := result.NewGridTable("features__m__ale_variance", []float64{0.8, 0.2})
	require.NoError(t, err)
	ranking.Labels = []string{"temp", "wind"}
	require.NoError(t, store.Add(ranking))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Export(store, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "metadata")
	assert.Contains(t, f.GetSheetList(), "table_1")

	key, err := f.GetCellValue("table_1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "features__m__ale_variance", key)

	label, err := f.GetCellValue("table_1", "A2")
	require.NoError(t, err)
	score, err := f.GetCellValue("table_1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "temp", label)
	assert.Equal(t, "0.8", score)

	next, err := f.GetCellValue("table_1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "wind", next)
}
