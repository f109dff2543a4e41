package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// AGGREGATION FUNCTIONS
// ============================================================================

// AggFunc names an aggregation function.
type AggFunc string

const (
	Sum      AggFunc = "sum"
	Count    AggFunc = "count"
	Avg      AggFunc = "avg"
	Min      AggFunc = "min"
	Max      AggFunc = "max"
	Distinct AggFunc = "distinct" // number of distinct non-empty values
)

// ErrUnknownAggFunc is returned by ParseAggFunc for unrecognised names.
var ErrUnknownAggFunc = errors.New("unknown aggregation function")

// ParseAggFunc converts configuration input into an AggFunc.
func ParseAggFunc(s string) (AggFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "total":
		return Sum, nil
	case "count":
		return Count, nil
	case "avg", "average", "mean":
		return Avg, nil
	case "min", "minimum":
		return Min, nil
	case "max", "maximum":
		return Max, nil
	case "distinct", "count_distinct", "unique":
		return Distinct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAggFunc, s)
}

// Valid reports whether f is a known function.
func (f AggFunc) Valid() bool {
	switch f {
	case Sum, Count, Avg, Min, Max, Distinct:
		return true
	}
	return false
}

// Additive reports whether totals equal the sum of their parts.
func (f AggFunc) Additive() bool {
	return f == Sum || f == Count
}

// mustValid panics on an invalid function. Passing an unknown AggFunc is a
// programmer error, not a data-quality problem.
func (f AggFunc) mustValid() {
	if !f.Valid() {
		panic(fmt.Sprintf("engine: invalid aggregation function %q", string(f)))
	}
}

// Finite maps NaN and ±Inf to 0. Nothing the engine returns is non-finite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
