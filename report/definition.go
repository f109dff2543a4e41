// Package report runs declarative report definitions: named views (pivot,
// trend, top-N, anomalies, co-occurrence, forecast) over one RecordSet.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/insight"
	"github.com/spektr-org/reportcube/recordset"
)

// ViewKind selects what a view computes.
type ViewKind string

const (
	KindPivot        ViewKind = "pivot"
	KindTrend        ViewKind = "trend"
	KindTopN         ViewKind = "topn"
	KindAnomalies    ViewKind = "anomalies"
	KindCoOccurrence ViewKind = "cooccurrence"
	KindForecast     ViewKind = "forecast"
)

var (
	// ErrUnknownViewKind is returned for a view kind that does not exist.
	ErrUnknownViewKind = errors.New("unknown view kind")
	// ErrInvalidView is returned for a view missing a required setting.
	ErrInvalidView = errors.New("invalid view")
)

// DateLayout is the layout of period bounds in a definition.
const DateLayout = "2006-01-02"

// Definition is a saved report: where the data comes from, how field names
// are reconciled and which views to compute.
type Definition struct {
	Name    string               `yaml:"name" json:"name"`
	Source  string               `yaml:"source,omitempty" json:"source,omitempty"`
	Aliases recordset.AliasTable `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Filters recordset.Filters    `yaml:"filters,omitempty" json:"filters,omitempty"`
	Views   []View               `yaml:"views" json:"views"`
}

// View is one named computation. Which settings apply depends on Kind:
//
//	pivot         rows, columns, value, func, column_order
//	trend         date_field, granularity, value, func, window, secondary_*
//	topn          rows, value, func, limit
//	anomalies     trend settings + threshold
//	cooccurrence  session_field, item_field, limit
//	forecast      date_field, period_a, period_b, metrics
type View struct {
	Name  string   `yaml:"name" json:"name"`
	Kind  ViewKind `yaml:"kind" json:"kind"`
	Title string   `yaml:"title,omitempty" json:"title,omitempty"`

	Rows        string   `yaml:"rows,omitempty" json:"rows,omitempty"`
	Columns     string   `yaml:"columns,omitempty" json:"columns,omitempty"`
	Value       string   `yaml:"value,omitempty" json:"value,omitempty"`
	Func        string   `yaml:"func,omitempty" json:"func,omitempty"`
	ColumnOrder []string `yaml:"column_order,omitempty" json:"columnOrder,omitempty"`

	DateField      string  `yaml:"date_field,omitempty" json:"dateField,omitempty"`
	Granularity    string  `yaml:"granularity,omitempty" json:"granularity,omitempty"`
	Window         int     `yaml:"window,omitempty" json:"window,omitempty"`
	SecondaryValue string  `yaml:"secondary_value,omitempty" json:"secondaryValue,omitempty"`
	SecondaryFunc  string  `yaml:"secondary_func,omitempty" json:"secondaryFunc,omitempty"`
	Threshold      float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Limit          int     `yaml:"limit,omitempty" json:"limit,omitempty"`

	SessionField string `yaml:"session_field,omitempty" json:"sessionField,omitempty"`
	ItemField    string `yaml:"item_field,omitempty" json:"itemField,omitempty"`

	PeriodA *PeriodSpec          `yaml:"period_a,omitempty" json:"periodA,omitempty"`
	PeriodB *PeriodSpec          `yaml:"period_b,omitempty" json:"periodB,omitempty"`
	Metrics []insight.MetricSpec `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// PeriodSpec is a half-open date range written as YYYY-MM-DD bounds.
type PeriodSpec struct {
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	From  string `yaml:"from" json:"from"`
	To    string `yaml:"to" json:"to"`
}

func (p *PeriodSpec) period() (insight.Period, error) {
	from, err := time.Parse(DateLayout, strings.TrimSpace(p.From))
	if err != nil {
		return insight.Period{}, fmt.Errorf("period from %q: %w", p.From, err)
	}
	to, err := time.Parse(DateLayout, strings.TrimSpace(p.To))
	if err != nil {
		return insight.Period{}, fmt.Errorf("period to %q: %w", p.To, err)
	}
	if !to.After(from) {
		return insight.Period{}, fmt.Errorf("%w: period %s..%s is empty", ErrInvalidView, p.From, p.To)
	}
	label := p.Label
	if label == "" {
		label = p.From + " – " + p.To
	}
	return insight.Period{Label: label, From: from, To: to}, nil
}

// ColumnOrders returns the persisted column order of every pivot view.
func (d *Definition) ColumnOrders() map[string][]string {
	out := make(map[string][]string)
	for _, v := range d.Views {
		if v.Kind == KindPivot && len(v.ColumnOrder) > 0 {
			out[v.Name] = v.ColumnOrder
		}
	}
	return out
}

// SetColumnOrder stores a pivot view's column order for persistence.
// It reports whether the view exists.
func (d *Definition) SetColumnOrder(view string, order []string) bool {
	for i := range d.Views {
		if d.Views[i].Name == view && d.Views[i].Kind == KindPivot {
			d.Views[i].ColumnOrder = append([]string(nil), order...)
			return true
		}
	}
	return false
}

// Validate checks every view without touching any data.
func (d *Definition) Validate() error {
	_, err := compile(d)
	return err
}

// ============================================================================
// COMPILATION — definition → executable plans
// ============================================================================

type plan struct {
	view View
	run  func(rs *recordset.RecordSet) *ViewResult
}

func compile(d *Definition) ([]plan, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidView)
	}
	seen := make(map[string]bool, len(d.Views))
	plans := make([]plan, 0, len(d.Views))
	var errs []error
	for i, v := range d.Views {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("view %s: %w: name is required", name, ErrInvalidView))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("view %s: %w: duplicate name", name, ErrInvalidView))
			continue
		}
		seen[v.Name] = true

		run, err := compileView(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("view %s: %w", name, err))
			continue
		}
		plans = append(plans, plan{view: v, run: run})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return plans, nil
}

func compileView(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	switch v.Kind {
	case KindPivot:
		return compilePivot(v)
	case KindTrend, KindAnomalies:
		return compileTrend(v)
	case KindTopN:
		return compileTopN(v)
	case KindCoOccurrence:
		return compileCoOccurrence(v)
	case KindForecast:
		return compileForecast(v)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownViewKind, v.Kind)
}

func aggFunc(s string) (engine.AggFunc, error) {
	if strings.TrimSpace(s) == "" {
		return engine.Sum, nil
	}
	return engine.ParseAggFunc(s)
}

func requireSettings(v View, fields map[string]string) error {
	var missing []string
	for setting, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, setting)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s view needs %s", ErrInvalidView, v.Kind, strings.Join(missing, ", "))
}

func needsValue(fn engine.AggFunc, value string) error {
	if fn != engine.Count && strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s needs a value field", ErrInvalidView, fn)
	}
	return nil
}

func compilePivot(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	if err := requireSettings(v, map[string]string{"rows": v.Rows, "columns": v.Columns}); err != nil {
		return nil, err
	}
	fn, err := aggFunc(v.Func)
	if err != nil {
		return nil, err
	}
	if err := needsValue(fn, v.Value); err != nil {
		return nil, err
	}
	order := append([]string(nil), v.ColumnOrder...)

	return func(rs *recordset.RecordSet) *ViewResult {
		p := engine.Pivot(rs, v.Rows, v.Columns, v.Value, fn, engine.WithColumnOrder(order))
		return &ViewResult{
			Pivot: p,
			Table: engine.BuildPivotTable(p, v.Title),
			Chart: engine.BuildPivotChart(p, v.Title),
		}
	}, nil
}

func compileTrend(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	if err := requireSettings(v, map[string]string{"date_field": v.DateField}); err != nil {
		return nil, err
	}
	fn, err := aggFunc(v.Func)
	if err != nil {
		return nil, err
	}
	if err := needsValue(fn, v.Value); err != nil {
		return nil, err
	}
	g := engine.Monthly
	if v.Granularity != "" {
		if g, err = engine.ParseGranularity(v.Granularity); err != nil {
			return nil, err
		}
	}
	opts := []engine.SeriesOption{engine.WithWindow(v.Window)}
	if v.SecondaryFunc != "" || v.SecondaryValue != "" {
		sfn, err := aggFunc(v.SecondaryFunc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSecondary(v.SecondaryValue, sfn))
	}
	if v.Threshold < 0 {
		return nil, fmt.Errorf("%w: negative threshold", ErrInvalidView)
	}
	threshold := v.Threshold
	if threshold == 0 {
		threshold = insight.DefaultAnomalyThreshold
	}
	bucketer := engine.TimeBucketer{Field: v.DateField, Granularity: g}

	return func(rs *recordset.RecordSet) *ViewResult {
		points := engine.BuildSeries(rs, bucketer, v.Value, fn, opts...)
		res := &ViewResult{
			Series: points,
			Chart:  engine.BuildTrendChart(points, v.Title),
		}
		if v.Kind == KindAnomalies {
			stats := insight.Describe(points)
			res.Stats = &stats
			res.Anomalies = insight.DetectAnomalies(points, threshold)
			res.Cards = insight.AnomalyCards(res.Anomalies)
		}
		return res
	}, nil
}

func compileTopN(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	if err := requireSettings(v, map[string]string{"rows": v.Rows}); err != nil {
		return nil, err
	}
	fn, err := aggFunc(v.Func)
	if err != nil {
		return nil, err
	}
	if err := needsValue(fn, v.Value); err != nil {
		return nil, err
	}

	return func(rs *recordset.RecordSet) *ViewResult {
		entries := engine.RankBy(rs, v.Rows, v.Value, fn, v.Limit)
		return &ViewResult{
			Entries: entries,
			Table:   engine.BuildRankingTable(entries, v.Rows, fn, v.Title),
			Chart:   engine.BuildRankingChart(entries, fn, v.Title),
		}
	}, nil
}

func compileCoOccurrence(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	if err := requireSettings(v, map[string]string{"session_field": v.SessionField, "item_field": v.ItemField}); err != nil {
		return nil, err
	}

	return func(rs *recordset.RecordSet) *ViewResult {
		pairs := insight.MineCoOccurrence(rs, v.SessionField, v.ItemField, v.Limit)
		return &ViewResult{Pairs: pairs, Cards: insight.PairCards(pairs)}
	}, nil
}

func compileForecast(v View) (func(rs *recordset.RecordSet) *ViewResult, error) {
	if err := requireSettings(v, map[string]string{"date_field": v.DateField}); err != nil {
		return nil, err
	}
	if v.PeriodA == nil || v.PeriodB == nil {
		return nil, fmt.Errorf("%w: forecast view needs period_a and period_b", ErrInvalidView)
	}
	a, err := v.PeriodA.period()
	if err != nil {
		return nil, err
	}
	b, err := v.PeriodB.period()
	if err != nil {
		return nil, err
	}
	if len(v.Metrics) == 0 {
		return nil, fmt.Errorf("%w: forecast view needs at least one metric", ErrInvalidView)
	}
	metrics := make([]insight.MetricSpec, len(v.Metrics))
	for i, m := range v.Metrics {
		fn, err := aggFunc(string(m.Func))
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", m.Name, err)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("%w: metric #%d has no name", ErrInvalidView, i+1)
		}
		m.Func = fn
		metrics[i] = m
	}

	return func(rs *recordset.RecordSet) *ViewResult {
		sa := insight.SummarizePeriod(recordset.Between(rs, v.DateField, a.From, a.To), metrics)
		sb := insight.SummarizePeriod(recordset.Between(rs, v.DateField, b.From, b.To), metrics)
		fc := insight.ForecastMetrics(sa, sb, metrics)
		comparisons := insight.ComparePeriods(sa, sb, metrics)
		return &ViewResult{
			Forecast:    &fc,
			Comparisons: comparisons,
			Cards:       append(insight.ForecastCards(fc), insight.ComparisonCards(comparisons)...),
		}
	}, nil
}
