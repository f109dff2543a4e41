package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// AGGREGATOR — group-by + aggregate over a RecordSet
// ============================================================================
// One pass, hash-map accumulation keyed by GroupKey.
// Result keeps groups in first-seen order; callers sort explicitly.
//
// Value handling:
//   sum      missing/non-numeric → 0
//   count    records in the group
//   avg      sum / numeric samples (missing values excluded)
//   min/max  extremum over numeric samples (missing values excluded)
//   distinct distinct non-empty values
// ============================================================================

// BlankLabel is the group key for records with an empty grouping value.
const BlankLabel = "(blank)"

// GroupKey identifies one aggregation bucket: a 0-, 1- or 2-tuple of values.
// It is comparable and used directly as a map key.
type GroupKey struct {
	parts [2]string
	n     int
}

// NewGroupKey builds a key from up to two parts.
func NewGroupKey(parts ...string) GroupKey {
	if len(parts) > 2 {
		panic(fmt.Sprintf("engine: group key supports at most 2 parts, got %d", len(parts)))
	}
	var k GroupKey
	k.n = len(parts)
	copy(k.parts[:], parts)
	return k
}

// Len returns the number of parts.
func (k GroupKey) Len() int { return k.n }

// Part returns the i-th part ("" when out of range).
func (k GroupKey) Part(i int) string {
	if i < 0 || i >= k.n {
		return ""
	}
	return k.parts[i]
}

func (k GroupKey) String() string {
	return strings.Join(k.parts[:k.n], " / ")
}

// Entry is one aggregated group.
type Entry struct {
	Key   GroupKey `json:"-"`
	Label string   `json:"label"`
	Value float64  `json:"value"`
	Count int      `json:"count"`
}

// Result maps GroupKeys to aggregated values.
type Result struct {
	Func   AggFunc
	Field  string
	absent bool // value field missing from the schema: every value reads 0
	order  []GroupKey
	groups map[GroupKey]*accumulator
}

// Len returns the number of groups.
func (r *Result) Len() int { return len(r.order) }

// Keys returns group keys in first-seen order.
func (r *Result) Keys() []GroupKey {
	out := make([]GroupKey, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether the group was observed.
func (r *Result) Has(k GroupKey) bool {
	_, ok := r.groups[k]
	return ok
}

// Value returns the aggregated value of a group, 0 when unobserved.
func (r *Result) Value(k GroupKey) float64 {
	acc, ok := r.groups[k]
	if !ok || r.absent {
		return 0
	}
	return acc.value(r.Func)
}

// Count returns the number of records in a group.
func (r *Result) Count(k GroupKey) int {
	if acc, ok := r.groups[k]; ok {
		return acc.records
	}
	return 0
}

// Entries returns every group in first-seen order.
func (r *Result) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, Entry{
			Key:   k,
			Label: k.String(),
			Value: r.Value(k),
			Count: r.Count(k),
		})
	}
	return out
}

// Aggregate groups rs by one or two fields and aggregates valueField.
//
// A valueField absent from the RecordSet schema yields every observed group
// with value 0. Any other group arity, or an invalid fn, panics.
func Aggregate(rs *recordset.RecordSet, groupFields []string, valueField string, fn AggFunc) *Result {
	if len(groupFields) < 1 || len(groupFields) > 2 {
		panic(fmt.Sprintf("engine: Aggregate needs 1 or 2 group fields, got %d", len(groupFields)))
	}
	fn.mustValid()

	var keyFn func(i int) GroupKey
	if len(groupFields) == 1 {
		f := groupFields[0]
		keyFn = func(i int) GroupKey { return NewGroupKey(groupValue(rs, i, f)) }
	} else {
		f1, f2 := groupFields[0], groupFields[1]
		keyFn = func(i int) GroupKey { return NewGroupKey(groupValue(rs, i, f1), groupValue(rs, i, f2)) }
	}
	return aggregateBy(rs, keyFn, valueField, fn)
}

// Total aggregates valueField over the whole RecordSet.
func Total(rs *recordset.RecordSet, valueField string, fn AggFunc) float64 {
	fn.mustValid()
	res := aggregateBy(rs, func(int) GroupKey { return GroupKey{} }, valueField, fn)
	return res.Value(GroupKey{})
}

// aggregateBy is the shared accumulation loop behind Aggregate, Pivot and
// BuildSeries. keyFn maps a record index to its bucket.
func aggregateBy(rs *recordset.RecordSet, keyFn func(i int) GroupKey, valueField string, fn AggFunc) *Result {
	res := &Result{
		Func:   fn,
		Field:  valueField,
		absent: !(fn == Count && valueField == "") && !rs.Has(valueField),
		groups: make(map[GroupKey]*accumulator),
	}

	for i := 0; i < rs.Len(); i++ {
		k := keyFn(i)
		acc, ok := res.groups[k]
		if !ok {
			acc = &accumulator{}
			res.groups[k] = acc
			res.order = append(res.order, k)
		}
		acc.records++
		if res.absent || valueField == "" {
			continue
		}
		switch fn {
		case Distinct:
			if s := rs.String(i, valueField); s != "" {
				acc.addDistinct(s)
			}
		case Count:
			// record count only
		default:
			if v, ok := rs.Number(i, valueField); ok {
				acc.add(v)
			}
		}
	}
	return res
}

func groupValue(rs *recordset.RecordSet, i int, field string) string {
	if s := rs.String(i, field); s != "" {
		return s
	}
	return BlankLabel
}

// ============================================================================
// ACCUMULATOR
// ============================================================================

type accumulator struct {
	records  int
	samples  int
	sum      decimal.Decimal
	min, max float64
	distinct map[string]struct{}
}

func (a *accumulator) add(v float64) {
	if a.samples == 0 || v < a.min {
		a.min = v
	}
	if a.samples == 0 || v > a.max {
		a.max = v
	}
	a.sum = a.sum.Add(decimal.NewFromFloat(v))
	a.samples++
}

func (a *accumulator) addDistinct(s string) {
	if a.distinct == nil {
		a.distinct = make(map[string]struct{})
	}
	a.distinct[s] = struct{}{}
}

func (a *accumulator) value(fn AggFunc) float64 {
	switch fn {
	case Sum:
		return Finite(a.sum.InexactFloat64())
	case Count:
		return float64(a.records)
	case Avg:
		if a.samples == 0 {
			return 0
		}
		return Finite(a.sum.Div(decimal.NewFromInt(int64(a.samples))).InexactFloat64())
	case Min:
		if a.samples == 0 {
			return 0
		}
		return a.min
	case Max:
		if a.samples == 0 {
			return 0
		}
		return a.max
	case Distinct:
		return float64(len(a.distinct))
	}
	return 0
}
