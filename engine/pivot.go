package engine

import (
	"sort"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// PIVOT ENGINE — row × column × value × aggregation
// ============================================================================
// Four independent passes over the population:
//   cells       (row, col)
//   row totals  (row)
//   col totals  (col)
//   grand total ()
// Totals are never summed from cells.
// ============================================================================

// GrandTotalLabel names the terminal totals row.
const GrandTotalLabel = "Grand Total"

// PivotTable is a two-dimensional cross-tabulation with totals.
type PivotTable struct {
	RowField   string                        `json:"rowField"`
	ColField   string                        `json:"colField"`
	ValueField string                        `json:"valueField"`
	Func       AggFunc                       `json:"aggFunc"`
	RowKeys    []string                      `json:"rowKeys"`
	ColKeys    []string                      `json:"colKeys"`
	Cells      map[string]map[string]float64 `json:"cells"`
	RowTotals  map[string]float64            `json:"rowTotals"`
	ColTotals  map[string]float64            `json:"colTotals"`
	GrandTotal float64                       `json:"grandTotal"`
}

// PivotRow is one rendered row of a PivotTable, cells aligned with ColKeys.
type PivotRow struct {
	Key   string    `json:"key"`
	Cells []float64 `json:"cells"`
	Total float64   `json:"total"`
}

// Pivot cross-tabulates rowField × colField, aggregating valueField with fn.
// Row and column keys come only from observed values.
func Pivot(rs *recordset.RecordSet, rowField, colField, valueField string, fn AggFunc, opts ...PivotOption) *PivotTable {
	fn.mustValid()
	cfg := applyPivotOptions(opts)

	rowKey := func(i int) GroupKey { return NewGroupKey(groupValue(rs, i, rowField)) }
	colKey := func(i int) GroupKey { return NewGroupKey(groupValue(rs, i, colField)) }

	cells := aggregateBy(rs, func(i int) GroupKey {
		return NewGroupKey(groupValue(rs, i, rowField), groupValue(rs, i, colField))
	}, valueField, fn)
	rows := aggregateBy(rs, rowKey, valueField, fn)
	cols := aggregateBy(rs, colKey, valueField, fn)

	p := &PivotTable{
		RowField:   rowField,
		ColField:   colField,
		ValueField: valueField,
		Func:       fn,
		RowKeys:    firstParts(rows),
		ColKeys:    applyColumnOrder(firstParts(cols), cfg.ColumnOrder),
		Cells:      make(map[string]map[string]float64),
		RowTotals:  make(map[string]float64),
		ColTotals:  make(map[string]float64),
		GrandTotal: Total(rs, valueField, fn),
	}
	sortRowKeys(p.RowKeys)

	for _, r := range p.RowKeys {
		p.RowTotals[r] = rows.Value(NewGroupKey(r))
		p.Cells[r] = make(map[string]float64, len(p.ColKeys))
		for _, c := range p.ColKeys {
			p.Cells[r][c] = cells.Value(NewGroupKey(r, c))
		}
	}
	for _, c := range p.ColKeys {
		p.ColTotals[c] = cols.Value(NewGroupKey(c))
	}
	return p
}

// Cell returns the value at (row, col); 0 for unobserved combinations.
func (p *PivotTable) Cell(row, col string) float64 {
	return p.Cells[row][col]
}

// ColumnOrder returns the current column order for persistence.
func (p *PivotTable) ColumnOrder() []string {
	out := make([]string, len(p.ColKeys))
	copy(out, p.ColKeys)
	return out
}

// Rows renders the table row by row, ending with the Grand Total row.
func (p *PivotTable) Rows() []PivotRow {
	out := make([]PivotRow, 0, len(p.RowKeys)+1)
	for _, r := range p.RowKeys {
		cells := make([]float64, len(p.ColKeys))
		for j, c := range p.ColKeys {
			cells[j] = p.Cell(r, c)
		}
		out = append(out, PivotRow{Key: r, Cells: cells, Total: p.RowTotals[r]})
	}

	totals := make([]float64, len(p.ColKeys))
	for j, c := range p.ColKeys {
		totals[j] = p.ColTotals[c]
	}
	return append(out, PivotRow{Key: GrandTotalLabel, Cells: totals, Total: p.GrandTotal})
}

// sortRowKeys sorts lexicographically; "Grand Total" always sorts last.
func sortRowKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a == GrandTotalLabel || b == GrandTotalLabel {
			return b == GrandTotalLabel && a != GrandTotalLabel
		}
		return a < b
	})
}

// applyColumnOrder keeps the persisted order for columns that are observed,
// then appends every other observed column in lexicographic order.
func applyColumnOrder(observed []string, persisted []string) []string {
	present := make(map[string]bool, len(observed))
	for _, c := range observed {
		present[c] = true
	}

	out := make([]string, 0, len(observed))
	placed := make(map[string]bool, len(observed))
	for _, c := range persisted {
		if present[c] && !placed[c] {
			out = append(out, c)
			placed[c] = true
		}
	}

	var rest []string
	for _, c := range observed {
		if !placed[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func firstParts(r *Result) []string {
	keys := r.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Part(0)
	}
	return out
}
