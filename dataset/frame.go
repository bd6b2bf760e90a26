package dataset

import (
	"fmt"
	"math"
	"strconv"
)

type Kind int

const (
	Numerical Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numerical"
}

// Column is a typed column. Numerical columns use NaN for missing values,
// categorical columns carry a validity mask alongside the strings.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Valid   []bool
}

func NewNumerical(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numerical, Floats: values}
}

// NewCategorical builds a categorical column where every value is present.
func NewCategorical(name string, values []string) *Column {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	return &Column{Name: name, Kind: Categorical, Strings: values, Valid: valid}
}

func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Strings)
	}
	return len(c.Floats)
}

func (c *Column) IsNull(i int) bool {
	if c.Kind == Categorical {
		return !c.Valid[i]
	}
	return math.IsNaN(c.Floats[i])
}

// Text renders row i the way a string cast would: missing values become "nan".
func (c *Column) Text(i int) string {
	if c.IsNull(i) {
		return "nan"
	}
	if c.Kind == Categorical {
		return c.Strings[i]
	}
	return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
}

// Distinct counts distinct values, a missing value counting as one more.
func (c *Column) Distinct() int {
	seenNull := false
	if c.Kind == Categorical {
		set := make(map[string]struct{})
		for i, s := range c.Strings {
			if !c.Valid[i] {
				seenNull = true
				continue
			}
			set[s] = struct{}{}
		}
		if seenNull {
			return len(set) + 1
		}
		return len(set)
	}
	set := make(map[float64]struct{})
	for _, v := range c.Floats {
		if math.IsNaN(v) {
			seenNull = true
			continue
		}
		set[v] = struct{}{}
	}
	if seenNull {
		return len(set) + 1
	}
	return len(set)
}

func (c *Column) filter(keep []bool) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	for i, k := range keep {
		if !k {
			continue
		}
		if c.Kind == Categorical {
			out.Strings = append(out.Strings, c.Strings[i])
			out.Valid = append(out.Valid, c.Valid[i])
		} else {
			out.Floats = append(out.Floats, c.Floats[i])
		}
	}
	return out
}

// Frame is an ordered set of equally long typed columns.
type Frame struct {
	columns []*Column
	rows    int
}

func NewFrame(rows int) *Frame {
	return &Frame{rows: rows}
}

func (f *Frame) Len() int { return f.rows }

func (f *Frame) Columns() []*Column { return f.columns }

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

func (f *Frame) Index(name string) int {
	for i, c := range f.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (f *Frame) Has(name string) bool { return f.Index(name) >= 0 }

func (f *Frame) Column(name string) (*Column, bool) {
	if i := f.Index(name); i >= 0 {
		return f.columns[i], true
	}
	return nil, false
}

// Add appends col, replacing an existing column of the same name in place.
func (f *Frame) Add(col *Column) error {
	if col.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", col.Name, col.Len(), f.rows)
	}
	if i := f.Index(col.Name); i >= 0 {
		f.columns[i] = col
		return nil
	}
	f.columns = append(f.columns, col)
	return nil
}

func (f *Frame) Drop(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := f.columns[:0]
	for _, c := range f.columns {
		if _, ok := drop[c.Name]; !ok {
			kept = append(kept, c)
		}
	}
	f.columns = kept
}

// Filter returns a new frame holding only the rows where keep is true.
func (f *Frame) Filter(keep []bool) *Frame {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := NewFrame(n)
	for _, c := range f.columns {
		out.columns = append(out.columns, c.filter(keep))
	}
	return out
}

// Take returns a new frame with the rows at idx, in that order.
func (f *Frame) Take(idx []int) *Frame {
	out := NewFrame(len(idx))
	for _, c := range f.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		for _, i := range idx {
			if c.Kind == Categorical {
				nc.Strings = append(nc.Strings, c.Strings[i])
				nc.Valid = append(nc.Valid, c.Valid[i])
			} else {
				nc.Floats = append(nc.Floats, c.Floats[i])
			}
		}
		out.columns = append(out.columns, nc)
	}
	return out
}

// NamesOf lists column names of the given kind in frame order, skipping exclude.
func (f *Frame) NamesOf(kind Kind, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	var out []string
	for _, c := range f.columns {
		if _, ok := skip[c.Name]; ok || c.Kind != kind {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
