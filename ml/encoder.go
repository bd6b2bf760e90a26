package ml

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

type TransformKind string

const (
	OneHot      TransformKind = "onehot"
	Passthrough TransformKind = "passthrough"

	CategoricalStage = "cat"
	NumericalStage   = "num"
)

// ColumnTransform routes a fixed list of columns through one encoding.
// Categories is filled by Fit for one-hot stages and is aligned with Columns.
type ColumnTransform struct {
	Name       string
	Kind       TransformKind
	Columns    []string
	Categories [][]string
}

// ColumnTransformer one-hot encodes categorical columns (unseen categories
// encode as all zeros) and passes numerical columns through, in that order.
type ColumnTransformer struct {
	Transformers []ColumnTransform
	Fitted       bool
}

func NewColumnTransformer(categorical, numerical []string) *ColumnTransformer {
	return &ColumnTransformer{
		Transformers: []ColumnTransform{
			{Name: CategoricalStage, Kind: OneHot, Columns: append([]string(nil), categorical...)},
			{Name: NumericalStage, Kind: Passthrough, Columns: append([]string(nil), numerical...)},
		},
	}
}

func (ct *ColumnTransformer) Fit(f *dataset.Frame) error {
	for ti := range ct.Transformers {
		tr := &ct.Transformers[ti]
		if tr.Kind != OneHot {
			continue
		}
		tr.Categories = make([][]string, len(tr.Columns))
		for ci, name := range tr.Columns {
			col, ok := f.Column(name)
			if !ok {
				return fmt.Errorf("column %q missing from training frame", name)
			}
			seen := make(map[string]struct{})
			for i := 0; i < col.Len(); i++ {
				seen[col.Text(i)] = struct{}{}
			}
			cats := make([]string, 0, len(seen))
			for c := range seen {
				cats = append(cats, c)
			}
			sort.Strings(cats)
			tr.Categories[ci] = cats
		}
	}
	ct.Fitted = true
	return nil
}

// Width is the number of encoded features one row expands to.
func (ct *ColumnTransformer) Width() int {
	w := 0
	for _, tr := range ct.Transformers {
		if tr.Kind == OneHot {
			for _, cats := range tr.Categories {
				w += len(cats)
			}
			continue
		}
		w += len(tr.Columns)
	}
	return w
}

// FeatureNames lists the encoded feature names, e.g. vehicle_type_Auto.
func (ct *ColumnTransformer) FeatureNames() []string {
	names := make([]string, 0, ct.Width())
	for _, tr := range ct.Transformers {
		if tr.Kind == OneHot {
			for ci, name := range tr.Columns {
				for _, c := range tr.Categories[ci] {
					names = append(names, name+"_"+c)
				}
			}
			continue
		}
		names = append(names, tr.Columns...)
	}
	return names
}

func (ct *ColumnTransformer) Transform(f *dataset.Frame) ([][]float64, error) {
	if !ct.Fitted {
		return nil, errors.New("column transformer is not fitted")
	}
	width := ct.Width()
	out := make([][]float64, f.Len())
	for i := range out {
		out[i] = make([]float64, width)
	}

	offset := 0
	for _, tr := range ct.Transformers {
		for ci, name := range tr.Columns {
			col, ok := f.Column(name)
			if !ok {
				return nil, fmt.Errorf("column %q missing from input", name)
			}
			switch tr.Kind {
			case OneHot:
				cats := tr.Categories[ci]
				for i := 0; i < f.Len(); i++ {
					if col.IsNull(i) {
						continue
					}
					if j := sort.SearchStrings(cats, col.Text(i)); j < len(cats) && cats[j] == col.Text(i) {
						out[i][offset+j] = 1
					}
				}
				offset += len(cats)
			case Passthrough:
				if col.Kind != dataset.Numerical {
					return nil, fmt.Errorf("column %q must be numerical", name)
				}
				for i := 0; i < f.Len(); i++ {
					out[i][offset] = col.Floats[i]
				}
				offset++
			default:
				return nil, fmt.Errorf("unsupported transform %q", tr.Kind)
			}
		}
	}
	return out, nil
}
