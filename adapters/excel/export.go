package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"mintpy/domain/result"
)

// Export writes a result store to an .xlsx workbook: a metadata sheet
// plus one sheet per table. Grid tables land as their shaped matrix,
// tabular tables get their column headers, labeled tables get a leading
// label column.
func Export(store *result.Store, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeMetadata(f, store); err != nil {
		return err
	}
	for i, key := range store.Keys() {
		table, _ := store.Get(key)
		// Sheet names are capped at 31 chars; the full key goes into
		// cell A1 so nothing is lost.
		name := fmt.Sprintf("table_%d", i+1)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet for %q: %w", key, err)
		}
		if err := writeTable(f, name, table); err != nil {
			return fmt.Errorf("failed to write table %q: %w", key, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeMetadata(f *excelize.File, store *result.Store) error {
	const sheet = "metadata"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	models := make([]string, len(store.Meta.ModelsUsed))
	for i, m := range store.Meta.ModelsUsed {
		models[i] = m.String()
	}
	rows := [][]any{
		{"method", string(store.Meta.Method)},
		{"model_output", string(store.Meta.ModelOutput)},
		{"models_used", fmt.Sprintf("%v", models)},
		{"dimension", string(store.Meta.Dimension)},
		{"direction", string(store.Meta.Direction)},
		{"evaluation_fn", store.Meta.EvaluationFn},
		{"tables", store.Len()},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, table result.Table) error {
	header := []any{table.Key}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	labelled := len(table.Labels) > 0
	startCol := 1
	if labelled {
		startCol = 2
	}

	// Column headers for tabular tables.
	rowOffset := 2
	if len(table.Columns) > 0 {
		cells := make([]any, 0, len(table.Columns))
		for _, c := range table.Columns {
			cells = append(cells, c)
		}
		cell, err := excelize.CoordinatesToCellName(startCol, rowOffset)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		rowOffset++
	}

	var matrix [][]float64
	switch {
	case len(table.Shape) == 2:
		m, err := table.Matrix()
		if err != nil {
			return err
		}
		matrix = m
	case labelled:
		// Labeled vectors (rankings) pair one label with one value.
		for _, v := range table.Values {
			matrix = append(matrix, []float64{v})
		}
	default:
		matrix = [][]float64{table.Values}
	}
	for i, row := range matrix {
		cells := make([]any, 0, len(row)+1)
		if labelled {
			label := ""
			if i < len(table.Labels) {
				label = table.Labels[i]
			}
			cells = append(cells, label)
		}
		for _, v := range row {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowOffset+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return nil
}
