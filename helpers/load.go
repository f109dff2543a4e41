package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// LOADERS — raw report exports → RecordSet
// ============================================================================
// The consumer fetches the export from wherever it lives (file, API, S3).
// These helpers turn the raw bytes into one immutable RecordSet; field kinds
// are inferred once, inside recordset.New.
// ============================================================================

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Option configures the loaders.
type Option func(*loadConfig)

type loadConfig struct {
	delimiter  rune
	snakeCase  bool
	recordOpts []recordset.Option
	logger     zerolog.Logger
}

// WithDelimiter sets the CSV field delimiter (default ',').
func WithDelimiter(r rune) Option {
	return func(c *loadConfig) { c.delimiter = r }
}

// WithSnakeCaseHeaders rewrites CSV headers as snake_case keys ("Order Date" → "order_date").
func WithSnakeCaseHeaders() Option {
	return func(c *loadConfig) { c.snakeCase = true }
}

// WithRecordOptions forwards options to recordset.New.
func WithRecordOptions(opts ...recordset.Option) Option {
	return func(c *loadConfig) { c.recordOpts = append(c.recordOpts, opts...) }
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l zerolog.Logger) Option {
	return func(c *loadConfig) { c.logger = l }
}

func applyOptions(opts []Option) *loadConfig {
	cfg := &loadConfig{delimiter: ',', logger: log.Logger}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a .csv or .json file into a RecordSet.
func Load(path string, opts ...Option) (*recordset.RecordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(data, opts...)
	case ".tsv":
		return ParseCSV(data, append([]Option{WithDelimiter('\t')}, opts...)...)
	case ".json":
		return ParseJSON(data, opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ============================================================================
// CSV
// ============================================================================

// ParseCSV parses CSV bytes with a header row. Values stay strings; rows
// with the wrong number of fields are skipped.
func ParseCSV(data []byte, opts ...Option) (*recordset.RecordSet, error) {
	cfg := applyOptions(opts)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = cfg.delimiter
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if cfg.snakeCase {
			h = toSnakeCase(h)
		}
		keys[i] = h
	}

	var records []recordset.Record
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec := make(recordset.Record, len(keys))
		for i, val := range row {
			if keys[i] == "" {
				continue
			}
			rec[keys[i]] = strings.TrimSpace(val)
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		cfg.logger.Warn().Int("skipped", skipped).Int("rows", len(records)).Msg("skipped malformed CSV rows")
	}
	return recordset.New(records, cfg.recordOpts...), nil
}

// ============================================================================
// JSON
// ============================================================================

// ParseJSON parses either a top-level array of objects or an object
// wrapping one under "records", "data" or "rows" (the usual report-API
// envelopes). Numbers are kept as json.Number so no precision is lost
// before inference. Non-object array elements are skipped.
func ParseJSON(data []byte, opts ...Option) (*recordset.RecordSet, error) {
	cfg := applyOptions(opts)

	raw, err := decodeRows(data)
	if err != nil {
		return nil, err
	}

	records := make([]recordset.Record, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		records = append(records, recordset.Record(obj))
	}

	if skipped > 0 {
		cfg.logger.Warn().Int("skipped", skipped).Int("rows", len(records)).Msg("skipped non-object JSON rows")
	}
	return recordset.New(records, cfg.recordOpts...), nil
}

func decodeRows(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"records", "data", "rows"} {
			if rows, ok := v[key].([]any); ok {
				return rows, nil
			}
		}
		return nil, fmt.Errorf("JSON object has no records, data or rows array")
	}
	return nil, fmt.Errorf("JSON document must be an array of objects")
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
