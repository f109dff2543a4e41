package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/insight"
	"github.com/spektr-org/reportcube/recordset"
)

func storeRecordSet() *recordset.RecordSet {
	return recordset.New([]recordset.Record{
		{"Date": "2026-01-05", "Order": "o1", "Region": "North", "Product": "Coffee", "Amount": 100, "Customer": "a"},
		{"Date": "2026-01-05", "Order": "o1", "Region": "North", "Product": "Bagel", "Amount": 100, "Customer": "a"},
		{"Date": "2026-01-20", "Order": "o2", "Region": "South", "Product": "Coffee", "Amount": 100, "Customer": "b"},
		{"Date": "2026-02-03", "Order": "o3", "Region": "North", "Product": "Bagel", "Amount": 100, "Customer": "a"},
		{"Date": "2026-02-03", "Order": "o3", "Region": "North", "Product": "Coffee", "Amount": 500, "Customer": "a"},
	})
}

func storeDefinition() *Definition {
	return &Definition{
		Name: "store",
		Views: []View{
			{Name: "by-month", Kind: KindPivot, Rows: "Region", Columns: "Product", Value: "Amount", Func: "sum",
				ColumnOrder: []string{"Coffee"}},
			{Name: "monthly", Kind: KindTrend, DateField: "Date", Granularity: "monthly", Value: "Amount",
				SecondaryFunc: "count"},
			{Name: "top", Kind: KindTopN, Rows: "Product", Value: "Amount", Limit: 1},
			{Name: "spikes", Kind: KindAnomalies, DateField: "Date", Granularity: "daily", Value: "Amount"},
			{Name: "basket", Kind: KindCoOccurrence, SessionField: "Order", ItemField: "Product"},
			{Name: "outlook", Kind: KindForecast, DateField: "Date",
				PeriodA: &PeriodSpec{Label: "Jan", From: "2026-01-01", To: "2026-02-01"},
				PeriodB: &PeriodSpec{Label: "Feb", From: "2026-02-01", To: "2026-03-01"},
				Metrics: []insight.MetricSpec{{Name: "revenue", Field: "Amount", Func: "total"}}},
		},
	}
}

type recorder struct {
	mu    sync.Mutex
	kinds map[string]string
}

func (r *recorder) ObserveView(kind string, _ time.Duration, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds == nil {
		r.kinds = make(map[string]string)
	}
	r.kinds[kind] = result
}

func TestRun_AllViews(t *testing.T) {
	rs := storeRecordSet()
	rec := &recorder{}
	out, err := Run(context.Background(), storeDefinition(), rs,
		WithLogger(zerolog.Nop()), WithRecorder(rec), WithConcurrency(2))
	require.NoError(t, err)

	assert.Equal(t, "store", out.Name)
	assert.Equal(t, rs.ID(), out.RecordSetID)
	assert.Equal(t, 5, out.Records)
	require.Len(t, out.Views, 6)
	assert.Equal(t, "by-month", out.Views[0].Name)
	assert.Equal(t, "outlook", out.Views[5].Name)

	pivot := out.View("by-month")
	require.NotNil(t, pivot.Pivot)
	assert.Equal(t, []string{"Coffee", "Bagel"}, pivot.Pivot.ColKeys)
	assert.Equal(t, 900.0, pivot.Pivot.GrandTotal)
	assert.Equal(t, 600.0, pivot.Pivot.Cell("North", "Coffee"))
	require.NotNil(t, pivot.Table)

	monthly := out.View("monthly")
	require.Len(t, monthly.Series, 2)
	assert.Equal(t, 300.0, monthly.Series[0].Value)
	assert.Equal(t, 600.0, monthly.Series[1].Value)
	require.NotNil(t, monthly.Series[1].Secondary)
	assert.Equal(t, 2.0, *monthly.Series[1].Secondary)
	assert.Empty(t, monthly.Anomalies)

	top := out.View("top")
	require.Len(t, top.Entries, 1)
	assert.Equal(t, "Coffee", top.Entries[0].Label)

	spikes := out.View("spikes")
	// daily totals 200, 100, 600: mean 300
	require.Len(t, spikes.Anomalies, 3)
	assert.Equal(t, insight.Over, spikes.Anomalies[2].Direction)
	assert.Len(t, spikes.Cards, 3)
	require.NotNil(t, spikes.Stats)
	assert.Equal(t, 300.0, spikes.Stats.Mean)

	basket := out.View("basket")
	require.Len(t, basket.Pairs, 1)
	assert.Equal(t, insight.CoOccurrencePair{ItemA: "Bagel", ItemB: "Coffee", Frequency: 2}, basket.Pairs[0])

	outlook := out.View("outlook")
	require.NotNil(t, outlook.Forecast)
	require.Len(t, outlook.Forecast.Results, 1)
	assert.InDelta(t, 100.0, outlook.Forecast.Results[0].TrendPercent, 1e-9)
	assert.InDelta(t, 1200.0, outlook.Forecast.Results[0].ProjectedValue, 1e-9)
	assert.Equal(t, insight.Low, outlook.Forecast.Confidence)
	require.Len(t, outlook.Comparisons, 1)
	assert.Equal(t, insight.Increased, outlook.Comparisons[0].Direction)
	assert.Len(t, outlook.Cards, 2)

	assert.Equal(t, "ok", rec.kinds["pivot"])
	assert.Len(t, rec.kinds, 6)
	assert.Nil(t, out.View("missing"))
}

func TestRun_Filters(t *testing.T) {
	def := &Definition{
		Name:    "north",
		Filters: recordset.Filters{"Region": {"north"}},
		Views:   []View{{Name: "total", Kind: KindTopN, Rows: "Region", Value: "Amount"}},
	}
	out, err := Run(context.Background(), def, storeRecordSet(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	assert.Equal(t, 4, out.Records)
	entries := out.View("total").Entries
	require.Len(t, entries, 1)
	assert.Equal(t, 800.0, entries[0].Value)
}

func TestRun_ValidationBeforeWork(t *testing.T) {
	rec := &recorder{}
	def := &Definition{
		Name: "broken",
		Views: []View{
			{Name: "ok", Kind: KindTopN, Rows: "Product", Value: "Amount"},
			{Name: "bad-kind", Kind: "heatmap"},
			{Name: "bad-func", Kind: KindPivot, Rows: "a", Columns: "b", Value: "v", Func: "median"},
			{Name: "bad-grain", Kind: KindTrend, DateField: "Date", Value: "Amount", Granularity: "hourly"},
			{Name: "no-rows", Kind: KindPivot, Columns: "b", Value: "v"},
		},
	}
	_, err := Run(context.Background(), def, storeRecordSet(), WithLogger(zerolog.Nop()), WithRecorder(rec))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnknownViewKind)
	assert.ErrorIs(t, err, engine.ErrUnknownAggFunc)
	assert.ErrorIs(t, err, engine.ErrUnknownGranularity)
	assert.ErrorIs(t, err, ErrInvalidView)
	assert.Contains(t, err.Error(), "no-rows")
	// nothing ran
	assert.Empty(t, rec.kinds)
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, storeDefinition().Validate())

	tests := []struct {
		name string
		view View
	}{
		{"missing name", View{Kind: KindTopN, Rows: "x", Value: "v"}},
		{"sum without value", View{Name: "v", Kind: KindTopN, Rows: "x"}},
		{"basket without item", View{Name: "v", Kind: KindCoOccurrence, SessionField: "s"}},
		{"forecast without periods", View{Name: "v", Kind: KindForecast, DateField: "d",
			Metrics: []insight.MetricSpec{{Name: "m", Field: "x", Func: "sum"}}}},
		{"forecast with empty period", View{Name: "v", Kind: KindForecast, DateField: "d",
			PeriodA: &PeriodSpec{From: "2026-02-01", To: "2026-02-01"},
			PeriodB: &PeriodSpec{From: "2026-02-01", To: "2026-03-01"},
			Metrics: []insight.MetricSpec{{Name: "m", Field: "x", Func: "sum"}}}},
		{"forecast without metrics", View{Name: "v", Kind: KindForecast, DateField: "d",
			PeriodA: &PeriodSpec{From: "2026-01-01", To: "2026-02-01"},
			PeriodB: &PeriodSpec{From: "2026-02-01", To: "2026-03-01"}}},
		{"negative threshold", View{Name: "v", Kind: KindAnomalies, DateField: "d", Value: "x", Threshold: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &Definition{Name: "t", Views: []View{tt.view}}
			assert.ErrorIs(t, def.Validate(), ErrInvalidView)
		})
	}

	dup := &Definition{Name: "t", Views: []View{
		{Name: "v", Kind: KindTopN, Rows: "x", Func: "count"},
		{Name: "v", Kind: KindTopN, Rows: "y", Func: "count"},
	}}
	assert.ErrorIs(t, dup.Validate(), ErrInvalidView)

	var nilDef *Definition
	assert.Error(t, nilDef.Validate())
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	_, err := Run(ctx, storeDefinition(), storeRecordSet(), WithLogger(zerolog.Nop()), WithRecorder(rec))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "canceled", rec.kinds["pivot"])
}

func TestRun_NilInputs(t *testing.T) {
	_, err := Run(context.Background(), nil, storeRecordSet())
	assert.ErrorIs(t, err, ErrInvalidView)

	out, err := Run(context.Background(), storeDefinition(), nil, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Records)
	assert.Empty(t, out.View("basket").Pairs)
}

func TestDefinition_ColumnOrders(t *testing.T) {
	def := storeDefinition()
	assert.Equal(t, map[string][]string{"by-month": {"Coffee"}}, def.ColumnOrders())

	assert.True(t, def.SetColumnOrder("by-month", []string{"Bagel", "Coffee"}))
	assert.False(t, def.SetColumnOrder("monthly", []string{"x"}))
	assert.Equal(t, []string{"Bagel", "Coffee"}, def.Views[0].ColumnOrder)
}
