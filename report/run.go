package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/insight"
	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// RUNNER — Definition × RecordSet → Output
// ============================================================================
// Pipeline:
//   1. Compile every view (all configuration errors surface here, before
//      any data is touched)
//   2. Apply the definition's filters → derived RecordSet
//   3. Fan views out with errgroup; each writes only its own result slot
//   4. Collect results in definition order
//
// The RecordSet is immutable and every engine call is pure, so views share
// it without coordination.
// ============================================================================

// Recorder receives one observation per finished view.
type Recorder interface {
	ObserveView(kind string, took time.Duration, result string)
}

// ViewResult is the output of one view. Only the fields its kind produces
// are set.
type ViewResult struct {
	Name     string        `json:"name"`
	Kind     ViewKind      `json:"kind"`
	Title    string        `json:"title,omitempty"`
	Duration time.Duration `json:"durationNs"`

	Pivot       *engine.PivotTable         `json:"pivot,omitempty"`
	Series      []engine.TrendPoint        `json:"series,omitempty"`
	Entries     []engine.Entry             `json:"entries,omitempty"`
	Stats       *insight.SeriesStats       `json:"stats,omitempty"`
	Anomalies   []insight.Anomaly          `json:"anomalies,omitempty"`
	Pairs       []insight.CoOccurrencePair `json:"pairs,omitempty"`
	Forecast    *insight.ForecastReport    `json:"forecast,omitempty"`
	Comparisons []insight.Comparison       `json:"comparisons,omitempty"`
	Cards       []insight.Card             `json:"cards,omitempty"`

	Table *engine.TableData   `json:"table,omitempty"`
	Chart *engine.ChartConfig `json:"chart,omitempty"`
}

// Output is a finished report.
type Output struct {
	Name        string        `json:"name"`
	RecordSetID uuid.UUID     `json:"recordSetId"`
	Records     int           `json:"records"`
	Views       []*ViewResult `json:"views"`
}

// View returns the result of the named view, or nil.
func (o *Output) View(name string) *ViewResult {
	for _, v := range o.Views {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger      zerolog.Logger
	recorder    Recorder
	concurrency int
}

// WithLogger sets the logger (default: the global zerolog logger).
func WithLogger(l zerolog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithRecorder reports per-view timings, e.g. to *telemetry.Metrics.
func WithRecorder(r Recorder) Option {
	return func(c *runConfig) { c.recorder = r }
}

// WithConcurrency bounds how many views run at once (0 = unbounded).
func WithConcurrency(n int) Option {
	return func(c *runConfig) { c.concurrency = n }
}

// Run validates def and computes all of its views against rs.
// A configuration error returns before any view starts; a canceled context
// stops views that have not started yet.
func Run(ctx context.Context, def *Definition, rs *recordset.RecordSet, opts ...Option) (*Output, error) {
	cfg := &runConfig{logger: log.Logger}
	for _, opt := range opts {
		opt(cfg)
	}

	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidView)
	}
	if rs == nil {
		rs = recordset.New(nil)
	}

	plans, err := compile(def)
	if err != nil {
		return nil, fmt.Errorf("invalid report %q: %w", def.Name, err)
	}

	data := recordset.Filter(rs, def.Filters)
	logger := cfg.logger.With().Str("report", def.Name).Logger()
	logger.Info().
		Int("views", len(plans)).
		Int("records", data.Len()).
		Int("total_records", rs.Len()).
		Msg("running report")

	results := make([]*ViewResult, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}
	for i, p := range plans {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				cfg.observe(p.view.Kind, 0, "canceled")
				return fmt.Errorf("view %s: %w", p.view.Name, err)
			}

			start := time.Now()
			res := p.run(data)
			took := time.Since(start)

			res.Name = p.view.Name
			res.Kind = p.view.Kind
			res.Title = p.view.Title
			res.Duration = took
			results[i] = res

			cfg.observe(p.view.Kind, took, "ok")
			logger.Debug().
				Str("view", p.view.Name).
				Str("kind", string(p.view.Kind)).
				Dur("duration", took).
				Msg("view computed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Output{
		Name:        def.Name,
		RecordSetID: data.ID(),
		Records:     data.Len(),
		Views:       results,
	}, nil
}

func (c *runConfig) observe(kind ViewKind, took time.Duration, result string) {
	if c.recorder != nil {
		c.recorder.ObserveView(string(kind), took, result)
	}
}
