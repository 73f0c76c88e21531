package dataset

import (
	"fmt"
	"math"
	"sort"

	"mintpy/domain/core"
)

// DType classifies a feature column for binning purposes.
type DType string

const (
	DTypeContinuous  DType = "continuous"
	DTypeCategorical DType = "categorical"
)

// Distinct-value ceiling under which an all-integral column is treated
// as categorical. Derived once at construction and cached.
const categoricalCardinality = 10

// Dataset is the canonical data object for all diagnostic computation:
// an ordered set of named feature columns of equal length N, paired with
// an optional target vector of length N. Immutable after construction;
// engines receive read-only views.
type Dataset struct {
	order   []core.FeatureKey
	index   map[core.FeatureKey]int
	columns [][]float64
	dtypes  []DType
	targets []float64
	n       int
}

// New builds a Dataset from ordered feature names and column-major data.
// Targets may be nil for methods that do not score against ground truth.
func New(features []core.FeatureKey, columns [][]float64, targets []float64) (*Dataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("dataset requires at least one feature")
	}
	if len(features) != len(columns) {
		return nil, fmt.Errorf("feature/column count mismatch: %d names, %d columns", len(features), len(columns))
	}

	n := len(columns[0])
	index := make(map[core.FeatureKey]int, len(features))
	for i, f := range features {
		if _, dup := index[f]; dup {
			return nil, fmt.Errorf("duplicate feature name %q", f)
		}
		if len(columns[i]) != n {
			return nil, fmt.Errorf("column %q has %d values, expected %d", f, len(columns[i]), n)
		}
		index[f] = i
	}
	if targets != nil && len(targets) != n {
		return nil, fmt.Errorf("target vector has %d values, expected %d", len(targets), n)
	}

	ds := &Dataset{
		order:   append([]core.FeatureKey(nil), features...),
		index:   index,
		columns: columns,
		dtypes:  make([]DType, len(features)),
		targets: targets,
		n:       n,
	}
	for i := range ds.columns {
		ds.dtypes[i] = classify(ds.columns[i])
	}
	return ds, nil
}

func classify(column []float64) DType {
	distinct := make(map[float64]struct{}, categoricalCardinality+1)
	for _, v := range column {
		if v != math.Trunc(v) || math.IsNaN(v) || math.IsInf(v, 0) {
			return DTypeContinuous
		}
		distinct[v] = struct{}{}
		if len(distinct) > categoricalCardinality {
			return DTypeContinuous
		}
	}
	return DTypeCategorical
}

// Len returns the number of examples N.
func (d *Dataset) Len() int { return d.n }

// Features returns the feature names in insertion order.
func (d *Dataset) Features() []core.FeatureKey {
	return append([]core.FeatureKey(nil), d.order...)
}

// Has reports whether the feature exists.
func (d *Dataset) Has(feature core.FeatureKey) bool {
	_, ok := d.index[feature]
	return ok
}

// Index returns the column position of a feature.
func (d *Dataset) Index(feature core.FeatureKey) (int, error) {
	i, ok := d.index[feature]
	if !ok {
		return 0, core.NewInvalidFeatureError(feature, "not present in dataset")
	}
	return i, nil
}

// DType returns the cached dtype classification of a feature.
func (d *Dataset) DType(feature core.FeatureKey) (DType, error) {
	i, err := d.Index(feature)
	if err != nil {
		return "", err
	}
	return d.dtypes[i], nil
}

// Column returns the raw values of a feature. The slice is shared with
// the dataset and must be treated as read-only.
func (d *Dataset) Column(feature core.FeatureKey) ([]float64, error) {
	i, err := d.Index(feature)
	if err != nil {
		return nil, err
	}
	return d.columns[i], nil
}

// Targets returns the target vector, or nil when none was provided.
// Read-only, like Column.
func (d *Dataset) Targets() []float64 { return d.targets }

// Matrix materializes the full dataset as a row-major batch suitable
// for model scoring. Each call returns a fresh copy.
func (d *Dataset) Matrix() [][]float64 {
	rows := make([][]float64, d.n)
	for r := 0; r < d.n; r++ {
		row := make([]float64, len(d.columns))
		for c := range d.columns {
			row[c] = d.columns[c][r]
		}
		rows[r] = row
	}
	return rows
}

// Rows materializes the selected examples as a row-major batch.
// Indices may repeat (bootstrap resamples draw with replacement).
func (d *Dataset) Rows(idx []int) [][]float64 {
	rows := make([][]float64, len(idx))
	for r, i := range idx {
		row := make([]float64, len(d.columns))
		for c := range d.columns {
			row[c] = d.columns[c][i]
		}
		rows[r] = row
	}
	return rows
}

// Subset builds a new Dataset restricted to the given example indices,
// carrying targets along when present. Indices may repeat.
func (d *Dataset) Subset(idx []int) *Dataset {
	columns := make([][]float64, len(d.columns))
	for c := range d.columns {
		col := make([]float64, len(idx))
		for r, i := range idx {
			col[r] = d.columns[c][i]
		}
		columns[c] = col
	}
	var targets []float64
	if d.targets != nil {
		targets = make([]float64, len(idx))
		for r, i := range idx {
			targets[r] = d.targets[i]
		}
	}
	sub := &Dataset{
		order:   d.order,
		index:   d.index,
		columns: columns,
		dtypes:  d.dtypes,
		targets: targets,
		n:       len(idx),
	}
	return sub
}

// Distinct returns the sorted distinct values of a feature, used for
// categorical effect curves.
func (d *Dataset) Distinct(feature core.FeatureKey) ([]float64, error) {
	col, err := d.Column(feature)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]struct{})
	var out []float64
	for _, v := range col {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out, nil
}

// CloneMatrix deep-copies a row-major batch. Engines use it to build
// counterfactual copies without touching the source rows.
func CloneMatrix(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
