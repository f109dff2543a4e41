package recordset

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// FIELD KIND INFERENCE — computed once per RecordSet
// ============================================================================
// Per field:
//   1. Sample up to SampleSize non-empty values
//   2. Count values that parse as numbers
//   3. Numeric if the ratio reaches the threshold (default 60%)
// ============================================================================

// FieldKind classifies a field as numeric (aggregatable) or categorical.
type FieldKind int

const (
	Categorical FieldKind = iota
	Numeric
)

func (k FieldKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// MarshalText renders the kind for JSON/YAML output.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind written by MarshalText.
func (k *FieldKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = Numeric
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("unknown field kind %q", b)
	}
	return nil
}

func inferKinds(records []Record, fields []string, sampleSize int, threshold float64) (map[string]FieldKind, map[string]FieldMeta) {
	kinds := make(map[string]FieldKind, len(fields))
	meta := make(map[string]FieldMeta, len(fields))

	for _, field := range fields {
		sampled, numeric, empty := 0, 0, 0
		unique := make(map[string]bool)

		for _, r := range records {
			v, present := r[field]
			if !present || IsEmpty(v) {
				empty++
				continue
			}
			unique[FormatValue(v)] = true
			if sampleSize > 0 && sampled >= sampleSize {
				continue
			}
			sampled++
			if _, ok := ParseNumber(v); ok {
				numeric++
			}
		}

		kind := Categorical
		if sampled > 0 && float64(numeric) >= float64(sampled)*threshold {
			kind = Numeric
		}
		kinds[field] = kind
		meta[field] = FieldMeta{
			Name:         field,
			DisplayName:  DisplayName(field),
			Kind:         kind,
			SampleValues: collectSamples(unique, 10),
			Distinct:     len(unique),
			Empty:        empty,
		}
	}
	return kinds, meta
}

// ============================================================================
// VALUE PARSING
// ============================================================================

var emptyMarkers = map[string]bool{
	"": true, "null": true, "NULL": true, "N/A": true, "n/a": true,
}

// IsEmpty reports whether a raw value counts as missing.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return emptyMarkers[strings.TrimSpace(x)]
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// ParseNumber converts a raw value to float64. Strings may carry thousands
// separators and a leading currency symbol ("$1,234.50"). NaN and ±Inf are
// rejected so they never reach an accumulator.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumericString(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if emptyMarkers[s] {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

var dateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan-2006",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006",
}

// ParseTime converts a raw value to a time. Strings are tried against the
// known report date layouts; numbers are epoch milliseconds.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if emptyMarkers[s] {
			return time.Time{}, false
		}
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := ParseNumber(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// DisplayName cleans a field name for human display.
// "story_points" → "Story Points", "Amount" → "Amount"
func DisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples values in sorted order.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
