// Package preprocess turns raw booking exports into a labeled, engineered
// feature frame ready for training.
package preprocess

import (
	"math"
	"sort"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

// Clean normalizes headers, derives the label, engineers date and time
// features, drops leakage, identifier and constant columns, and imputes.
// raw is not modified.
func Clean(raw *dataset.RawFrame) (*dataset.Frame, error) {
	normalized := &dataset.RawFrame{Columns: make([]string, len(raw.Columns)), Rows: raw.Rows}
	for i, c := range raw.Columns {
		normalized.Columns[i] = NormalizeColumn(c)
	}
	return CleanFrame(dataset.Infer(normalized))
}

// CleanFrame runs the cleaning steps on an already typed frame. Column names
// of f are normalized in place; rows are copied before anything else changes.
func CleanFrame(f *dataset.Frame) (*dataset.Frame, error) {
	for _, c := range f.Columns() {
		c.Name = NormalizeColumn(c.Name)
	}

	f, err := buildTarget(f)
	if err != nil {
		return nil, err
	}
	if err := engineerDate(f); err != nil {
		return nil, err
	}
	if err := engineerTime(f); err != nil {
		return nil, err
	}

	f.Drop(append(append([]string(nil), LeakageColumns...), IDColumns...)...)
	dropConstant(f)
	impute(f)
	return f, nil
}

func buildTarget(f *dataset.Frame) (*dataset.Frame, error) {
	status, ok := f.Column(StatusColumn)
	if !ok {
		return nil, apperr.MissingColumn(StatusColumn, f.Names())
	}

	keep := make([]bool, f.Len())
	for i := range keep {
		s := normalizeStatus(status.Text(i))
		if _, isNull := nullLike[s]; isNull {
			continue
		}
		_, known := knownStatuses[s]
		keep[i] = known
	}
	out := f.Filter(keep)

	status, _ = out.Column(StatusColumn)
	labels := make([]float64, out.Len())
	for i := range labels {
		labels[i] = float64(IsCancelled(status.Text(i)))
	}
	if err := out.Add(dataset.NewNumerical(LabelColumn, labels)); err != nil {
		return nil, err
	}
	return out, nil
}

func dropConstant(f *dataset.Frame) {
	var constant []string
	for _, c := range f.Columns() {
		if c.Name == LabelColumn {
			continue
		}
		if c.Distinct() <= 1 {
			constant = append(constant, c.Name)
		}
	}
	f.Drop(constant...)
}

func impute(f *dataset.Frame) {
	for _, c := range f.Columns() {
		if c.Name == LabelColumn {
			continue
		}
		switch c.Kind {
		case dataset.Numerical:
			m := median(c.Floats)
			if math.IsNaN(m) {
				continue
			}
			for i, v := range c.Floats {
				if math.IsNaN(v) {
					c.Floats[i] = m
				}
			}
		case dataset.Categorical:
			for i, ok := range c.Valid {
				if !ok {
					c.Strings[i] = UnknownToken
					c.Valid[i] = true
				}
			}
		}
	}
}

// median of the non-NaN values; NaN when there are none.
func median(values []float64) float64 {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		return (vals[mid-1] + vals[mid]) / 2
	}
	return vals[mid]
}
