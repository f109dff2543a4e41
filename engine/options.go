package engine

// ============================================================================
// OPTIONS — Functional options for Pivot() and BuildSeries()
// ============================================================================

// PivotOption configures Pivot.
type PivotOption func(*pivotConfig)

type pivotConfig struct {
	ColumnOrder []string // persisted column order, applied verbatim
}

// WithColumnOrder applies a persisted column order. Newly observed columns
// that the order does not mention are appended at the end.
func WithColumnOrder(order []string) PivotOption {
	return func(c *pivotConfig) {
		c.ColumnOrder = order
	}
}

// SeriesOption configures BuildSeries.
type SeriesOption func(*seriesConfig)

type seriesConfig struct {
	Window         int     // keep the last N buckets (0 = all)
	SecondaryField string  // optional second measure per bucket
	SecondaryFunc  AggFunc // aggregation for SecondaryField
}

// WithWindow keeps only the most recent n buckets (trailing window).
func WithWindow(n int) SeriesOption {
	return func(c *seriesConfig) {
		c.Window = n
	}
}

// WithSecondary adds a second aggregate per bucket (e.g. order count next to revenue).
func WithSecondary(field string, fn AggFunc) SeriesOption {
	return func(c *seriesConfig) {
		c.SecondaryField = field
		c.SecondaryFunc = fn
	}
}

func applyPivotOptions(opts []PivotOption) *pivotConfig {
	cfg := &pivotConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func applySeriesOptions(opts []SeriesOption) *seriesConfig {
	cfg := &seriesConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
