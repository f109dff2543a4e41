package engine

import (
	"sort"

	"github.com/spektr-org/reportcube/recordset"
)

// TopN returns the n highest-valued groups, descending. Equal values keep
// first-seen order (stable sort), so output is reproducible run to run.
// n <= 0 returns every group.
func TopN(r *Result, n int) []Entry {
	entries := r.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// RankBy groups by one field and returns its top n groups.
func RankBy(rs *recordset.RecordSet, field, valueField string, fn AggFunc, n int) []Entry {
	return TopN(Aggregate(rs, []string{field}, valueField, fn), n)
}
