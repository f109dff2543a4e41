package recordset

import (
	"strings"
	"time"
)

// ============================================================================
// FILTERS — field-value and date-range subsets
// ============================================================================
// Single pass: every constraint is checked per record in one loop.
// The result is a new RecordSet sharing the parent's inferred schema.
// ============================================================================

// Filters restrict records by field value.
// Keys are field names, values are allowed values.
// OR within a field, AND across fields. Empty = all.
type Filters map[string][]string

// IsEmpty returns true if no constraint is set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Filter returns the records matching all field filters (case-insensitive).
// An empty filter returns rs itself.
func Filter(rs *RecordSet, filters Filters) *RecordSet {
	if filters.IsEmpty() || rs.Len() == 0 {
		return rs
	}

	sets := make(map[string]map[string]bool)
	for field, allowed := range filters {
		if len(allowed) > 0 {
			sets[field] = toLowerSet(allowed)
		}
	}

	indices := make([]int, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		pass := true
		for field, set := range sets {
			if !set[strings.ToLower(rs.String(i, field))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return rs.derive(indices)
}

// Between returns records whose dateField falls in [from, to).
// A zero from or to leaves that side open. Unparseable dates are excluded.
func Between(rs *RecordSet, dateField string, from, to time.Time) *RecordSet {
	indices := make([]int, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		t, ok := ParseTime(rs.Value(i, dateField))
		if !ok {
			continue
		}
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && !t.Before(to) {
			continue
		}
		indices = append(indices, i)
	}
	return rs.derive(indices)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
