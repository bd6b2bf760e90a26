package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Infer types every raw column. A column is numerical when each non-null cell
// parses as a float (an all-null column is numerical too); otherwise it is
// categorical and keeps the raw strings.
func Infer(raw *RawFrame) *Frame {
	f := NewFrame(raw.Len())
	for j, name := range raw.Columns {
		f.columns = append(f.columns, inferColumn(name, raw, j))
	}
	return f
}

func inferColumn(name string, raw *RawFrame, j int) *Column {
	floats := make([]float64, raw.Len())
	numeric := true
	for i, row := range raw.Rows {
		cell := row[j]
		if cell.Null {
			floats[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell.Value), 64)
		if err != nil {
			numeric = false
			break
		}
		floats[i] = v
	}
	if numeric {
		return NewNumerical(name, floats)
	}

	col := &Column{
		Name:    name,
		Kind:    Categorical,
		Strings: make([]string, raw.Len()),
		Valid:   make([]bool, raw.Len()),
	}
	for i, row := range raw.Rows {
		col.Strings[i] = row[j].Value
		col.Valid[i] = !row[j].Null
	}
	return col
}
