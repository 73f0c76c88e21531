// Package excel reads datasets from spreadsheet files and exports
// result stores back out as workbooks.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
)

// ReaderOptions configures dataset extraction from a sheet.
type ReaderOptions struct {
	// Sheet names the worksheet to read; empty means the first sheet.
	// Ignored for CSV files.
	Sheet string
	// TargetColumn names the column holding targets. Empty means no
	// targets.
	TargetColumn string
}

// DataReader loads a numeric dataset from an .xlsx or .csv file. The
// first row must hold column headers; non-numeric columns are skipped.
type DataReader struct {
	filePath string
	fileType string
}

// NewDataReader builds a reader, dispatching on the file extension.
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the file into a Dataset.
func (r *DataReader) Read(opts ReaderOptions) (*dataset.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel(opts.Sheet)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("data file must have a header row and at least one data row")
	}
	return buildDataset(rows, opts.TargetColumn)
}

func (r *DataReader) readExcel(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// buildDataset turns header+string rows into numeric columns. A column
// is kept when every non-empty cell parses as a float; empty cells are
// rejected to avoid silently inventing zeros.
func buildDataset(rows [][]string, targetColumn string) (*dataset.Dataset, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	n := len(rows) - 1

	var features []core.FeatureKey
	var columns [][]float64
	var targets []float64
	for c, header := range headers {
		if header == "" {
			continue
		}
		col := make([]float64, n)
		numeric := true
		for i := 1; i < len(rows); i++ {
			if c >= len(rows[i]) {
				numeric = false
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rows[i][c]), 64)
			if err != nil {
				numeric = false
				break
			}
			col[i-1] = v
		}
		if !numeric {
			if header == targetColumn {
				return nil, fmt.Errorf("target column %q is not numeric", targetColumn)
			}
			continue
		}
		if header == targetColumn {
			targets = col
			continue
		}
		features = append(features, core.FeatureKey(header))
		columns = append(columns, col)
	}
	if targetColumn != "" && targets == nil {
		return nil, fmt.Errorf("target column %q not found", targetColumn)
	}
	return dataset.New(features, columns, targets)
}
