// Package recordset wraps flat report payloads as immutable, typed tables.
//
// A RecordSet is loaded once per query. Field kinds are inferred at load time
// and cached on the wrapper, so every aggregation over the same set sees the
// same schema without re-sampling.
package recordset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// RECORD — one flat row from an external report
// ============================================================================

// Record is a single flat row: field name → scalar.
// Values are string, any Go number, json.Number, bool, time.Time or nil.
type Record map[string]any

// ============================================================================
// RECORD SET — ordered, immutable sequence of records
// ============================================================================

// RecordSet is an ordered, immutable table of Records sharing a field set.
// It is safe for concurrent readers; nothing in this module mutates it.
type RecordSet struct {
	id      uuid.UUID
	records []Record
	fields  []string
	kinds   map[string]FieldKind
	meta    map[string]FieldMeta
}

// Option configures RecordSet loading.
type Option func(*loadConfig)

type loadConfig struct {
	SampleSize       int
	NumericThreshold float64
	Aliases          AliasTable
}

// DefaultSampleSize is the number of non-empty values inspected per field.
const DefaultSampleSize = 1000

// DefaultNumericThreshold is the share of sampled values that must parse as
// numbers for a field to be classified numeric.
const DefaultNumericThreshold = 0.6

// WithSampleSize caps how many non-empty values are sampled per field (0 = all).
func WithSampleSize(n int) Option {
	return func(c *loadConfig) {
		c.SampleSize = n
	}
}

// WithNumericThreshold overrides the numeric classification ratio.
func WithNumericThreshold(ratio float64) Option {
	return func(c *loadConfig) {
		if ratio > 0 && ratio <= 1 {
			c.NumericThreshold = ratio
		}
	}
}

// WithAliases fills canonical fields from their aliases when a record lacks them.
func WithAliases(aliases AliasTable) Option {
	return func(c *loadConfig) {
		c.Aliases = aliases
	}
}

// New builds a RecordSet. Records are normalized (aliases applied) into fresh
// maps, so later changes to the caller's slice do not leak in.
func New(records []Record, opts ...Option) *RecordSet {
	cfg := &loadConfig{
		SampleSize:       DefaultSampleSize,
		NumericThreshold: DefaultNumericThreshold,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	rows := make([]Record, len(records))
	for i, r := range records {
		row := make(Record, len(r)+len(cfg.Aliases))
		for k, v := range r {
			row[k] = v
		}
		cfg.Aliases.apply(row)
		rows[i] = row
	}

	rs := &RecordSet{
		id:      uuid.New(),
		records: rows,
	}
	rs.fields = discoverFields(records, cfg.Aliases)
	rs.kinds, rs.meta = inferKinds(rs.records, rs.fields, cfg.SampleSize, cfg.NumericThreshold)
	return rs
}

// derive builds a subset sharing the parent's schema. Kinds are not re-inferred.
func (rs *RecordSet) derive(indices []int) *RecordSet {
	if rs == nil {
		return New(nil)
	}
	rows := make([]Record, len(indices))
	for i, idx := range indices {
		rows[i] = rs.records[idx]
	}
	return &RecordSet{
		id:      uuid.New(),
		records: rows,
		fields:  rs.fields,
		kinds:   rs.kinds,
		meta:    rs.meta,
	}
}

// discoverFields returns field names in first-seen order. Canonical alias
// targets are listed right after their first observed alias.
func discoverFields(records []Record, aliases AliasTable) []string {
	seen := make(map[string]bool)
	var fields []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	for _, r := range records {
		for _, k := range sortedKeys(r) {
			add(k)
			if canonical, ok := aliases.canonicalFor(k); ok {
				add(canonical)
			}
		}
	}
	return fields
}

// ID identifies this RecordSet instance. Callers that memoize results key
// their caches by (ID, configuration).
func (rs *RecordSet) ID() uuid.UUID { return rs.id }

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// Fields returns field names in first-seen order. Do not modify the slice.
func (rs *RecordSet) Fields() []string { return rs.fields }

// Has reports whether the field was observed in any record.
func (rs *RecordSet) Has(field string) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.kinds[field]
	return ok
}

// Kind returns the inferred kind of a field.
func (rs *RecordSet) Kind(field string) (FieldKind, bool) {
	if rs == nil {
		return Categorical, false
	}
	k, ok := rs.kinds[field]
	return k, ok
}

// Value returns the raw value at (i, field), or nil.
func (rs *RecordSet) Value(i int, field string) any {
	if i < 0 || i >= rs.Len() {
		return nil
	}
	return rs.records[i][field]
}

// Number returns the numeric value at (i, field). ok is false for missing,
// empty or non-numeric values.
func (rs *RecordSet) Number(i int, field string) (float64, bool) {
	return ParseNumber(rs.Value(i, field))
}

// String returns the display form of the value at (i, field); "" when empty.
func (rs *RecordSet) String(i int, field string) string {
	return FormatValue(rs.Value(i, field))
}

// Record returns a copy of the i-th record.
func (rs *RecordSet) Record(i int) Record {
	if i < 0 || i >= rs.Len() {
		return nil
	}
	out := make(Record, len(rs.records[i]))
	for k, v := range rs.records[i] {
		out[k] = v
	}
	return out
}

// FormatValue renders a scalar for grouping and display.
func FormatValue(v any) string {
	if IsEmpty(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
