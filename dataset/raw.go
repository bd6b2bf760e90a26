package dataset

import "fmt"

// Cell is one raw value as ingested. Null marks a value the source reported as absent.
type Cell struct {
	Value string
	Null  bool
}

func Text(v string) Cell { return Cell{Value: v} }
func NullCell() Cell     { return Cell{Null: true} }

// RawFrame is a table of raw booking records with the header exactly as read.
type RawFrame struct {
	Columns []string
	Rows    [][]Cell
}

func NewRawFrame(columns []string) *RawFrame {
	return &RawFrame{Columns: append([]string(nil), columns...)}
}

func (r *RawFrame) Append(cells ...Cell) error {
	if len(cells) != len(r.Columns) {
		return fmt.Errorf("row has %d cells, header has %d columns", len(cells), len(r.Columns))
	}
	r.Rows = append(r.Rows, cells)
	return nil
}

func (r *RawFrame) Len() int { return len(r.Rows) }

// nullTokens mirrors the tokens a pandas CSV reader treats as missing.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// ParseCell converts a CSV field into a Cell. Tokens match exactly, untrimmed.
func ParseCell(field string) Cell {
	if _, ok := nullTokens[field]; ok {
		return NullCell()
	}
	return Text(field)
}
