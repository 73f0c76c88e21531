package result

import (
	"fmt"

	"mintpy/domain/core"
)

// Kind is the table representation tag. Fixed at construction: grid
// tables carry a shaped numeric array (effect curves, surfaces, score
// matrices), tabular tables carry named row-oriented columns
// (per-example contributions). Save/load dispatches on the tag instead
// of sniffing shapes.
type Kind string

const (
	KindGrid    Kind = "grid"
	KindTabular Kind = "tabular"
)

// Table is one named multi-dimensional result array.
type Table struct {
	Key    string    `json:"key"`
	Kind   Kind      `json:"kind"`
	Values []float64 `json:"values"`
	// Shape gives the dimensions of Values in row-major order.
	Shape []int `json:"shape"`
	// Columns names the value columns of a tabular table.
	Columns []string `json:"columns,omitempty"`
	// Labels carries an ordered name list for ranking tables.
	Labels []string `json:"labels,omitempty"`
}

// Key builders. Every stored array is addressed by a
// "{feature}__{model}__{method}" triple; grid coordinates live under
// "{feature}__bin_values".

func Key(feature fmt.Stringer, model core.ModelKey, method core.Method) string {
	return fmt.Sprintf("%s__%s__%s", feature, model, method)
}

func BinKey(feature fmt.Stringer) string {
	return fmt.Sprintf("%s__bin_values", feature)
}

// NewGridTable builds a shaped numeric table. The element count must
// match the shape product.
func NewGridTable(key string, values []float64, shape ...int) (Table, error) {
	want := 1
	for _, s := range shape {
		want *= s
	}
	if len(shape) == 0 {
		want = len(values)
		shape = []int{len(values)}
	}
	if want != len(values) {
		return Table{}, fmt.Errorf("grid table %q: shape %v does not cover %d values", key, shape, len(values))
	}
	return Table{Key: key, Kind: KindGrid, Values: values, Shape: shape}, nil
}

// NewTabularTable builds a row-oriented table with named columns.
func NewTabularTable(key string, columns []string, rows [][]float64) (Table, error) {
	values := make([]float64, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, fmt.Errorf("tabular table %q: row %d has %d values, expected %d", key, i, len(row), len(columns))
		}
		values = append(values, row...)
	}
	return Table{
		Key:     key,
		Kind:    KindTabular,
		Values:  values,
		Shape:   []int{len(rows), len(columns)},
		Columns: append([]string(nil), columns...),
	}, nil
}

// Row returns one row of a tabular or 2D grid table.
func (t Table) Row(i int) ([]float64, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("table %q is not two-dimensional", t.Key)
	}
	width := t.Shape[1]
	if i < 0 || i >= t.Shape[0] {
		return nil, fmt.Errorf("table %q: row %d out of range", t.Key, i)
	}
	return t.Values[i*width : (i+1)*width], nil
}

// Matrix reshapes a two-dimensional table into rows.
func (t Table) Matrix() ([][]float64, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("table %q is not two-dimensional", t.Key)
	}
	rows := make([][]float64, t.Shape[0])
	for i := range rows {
		row, err := t.Row(i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}
