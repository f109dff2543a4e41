package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — produces TableData for the grid collaborator
// ============================================================================
// Values are formatted here; the grid never recomputes anything.
// ============================================================================

// BuildPivotTable renders a PivotTable as rows × columns plus a Total column,
// ending with the Grand Total row.
func BuildPivotTable(p *PivotTable, title string) *TableData {
	if p == nil {
		return &TableData{Title: title, Columns: []Column{}, Rows: [][]string{}}
	}

	columns := make([]Column, 0, len(p.ColKeys)+2)
	columns = append(columns, Column{
		Key:   p.RowField,
		Label: LabelForField(p.RowField),
		Type:  "text",
		Align: "left",
	})
	for _, c := range p.ColKeys {
		columns = append(columns, Column{Key: c, Label: c, Type: "number", Align: "right"})
	}
	columns = append(columns, Column{Key: "total", Label: "Total", Type: "number", Align: "right"})

	rows := make([][]string, 0, len(p.RowKeys)+1)
	for _, r := range p.Rows() {
		row := make([]string, 0, len(columns))
		row = append(row, r.Key)
		for _, v := range r.Cells {
			row = append(row, FormatValue(v, p.Func))
		}
		row = append(row, FormatValue(r.Total, p.Func))
		rows = append(rows, row)
	}

	totals := make(map[string]string, len(p.ColKeys)+1)
	for _, c := range p.ColKeys {
		totals[c] = FormatValue(p.ColTotals[c], p.Func)
	}
	totals["total"] = FormatValue(p.GrandTotal, p.Func)

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{Label: GrandTotalLabel, Values: totals},
	}
}

// BuildRankingTable renders ranked entries with their record counts.
func BuildRankingTable(entries []Entry, groupField string, fn AggFunc, title string) *TableData {
	if len(entries) == 0 {
		return &TableData{Title: title, Columns: []Column{}, Rows: [][]string{}}
	}

	groupLabel := "Group"
	if groupField != "" {
		groupLabel = LabelForField(groupField)
	}

	columns := []Column{
		{Key: "rank", Label: "#", Type: "number", Align: "center"},
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: LabelForAggregation(fn), Type: "number", Align: "right"},
		{Key: "count", Label: "Records", Type: "number", Align: "center"},
	}

	rows := make([][]string, 0, len(entries))
	totalCount := 0
	for i, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Label,
			FormatValue(e.Value, fn),
			FormatInt(e.Count),
		})
		totalCount += e.Count
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Top %d", len(entries)),
			Values: map[string]string{
				"count": FormatInt(totalCount),
			},
		},
	}
}
