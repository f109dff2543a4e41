package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/recordset"
)

func series(values ...float64) []engine.TrendPoint {
	months := []string{"Jan 2026", "Feb 2026", "Mar 2026", "Apr 2026", "May 2026", "Jun 2026"}
	out := make([]engine.TrendPoint, len(values))
	for i, v := range values {
		out[i] = engine.TrendPoint{BucketKey: months[i], Value: v}
	}
	return out
}

// ============================================================================
// ANOMALIES
// ============================================================================

func TestDetectAnomalies_SpikeFlagsEveryPoint(t *testing.T) {
	got := DetectAnomalies(series(100, 100, 100, 500), DefaultAnomalyThreshold)

	require.Len(t, got, 4)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, -50.0, got[i].DeviationPercent, 1e-9)
		assert.Equal(t, Under, got[i].Direction)
	}
	assert.Equal(t, "Apr 2026", got[3].BucketKey)
	assert.Equal(t, 500.0, got[3].ObservedValue)
	assert.InDelta(t, 150.0, got[3].DeviationPercent, 1e-9)
	assert.Equal(t, Over, got[3].Direction)
}

func TestDetectAnomalies_ThresholdIsStrict(t *testing.T) {
	// mean 100: 130 deviates exactly 30%, 70 exactly -30%
	got := DetectAnomalies(series(130, 70, 100), 30)
	assert.Empty(t, got)

	got = DetectAnomalies(series(130, 70, 100), 29.9)
	require.Len(t, got, 2)
	assert.Equal(t, Over, got[0].Direction)
	assert.Equal(t, Under, got[1].Direction)
}

func TestDetectAnomalies_ZeroMeanAndEmpty(t *testing.T) {
	assert.Empty(t, DetectAnomalies(series(0, 0, 0), 30))
	assert.Empty(t, DetectAnomalies(series(-50, 50), 30))
	assert.Empty(t, DetectAnomalies(nil, 30))
}

func TestDescribe(t *testing.T) {
	s := Describe(series(2, 4, 6))
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, 4.0, s.Mean)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 6.0, s.Max)
	assert.Equal(t, 12.0, s.Total)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)

	assert.Equal(t, SeriesStats{}, Describe(nil))
	assert.Equal(t, 0.0, Describe(series(5)).StdDev)
}

// ============================================================================
// CO-OCCURRENCE
// ============================================================================

func TestMineCoOccurrence_OrderInsensitive(t *testing.T) {
	rs := recordset.New([]recordset.Record{
		{"Date": "d1", "Item": "X"},
		{"Date": "d1", "Item": "Y"},
		{"Date": "d2", "Item": "Y"},
		{"Date": "d2", "Item": "X"},
	})
	pairs := MineCoOccurrence(rs, "Date", "Item", 10)

	require.Len(t, pairs, 1)
	assert.Equal(t, CoOccurrencePair{ItemA: "X", ItemB: "Y", Frequency: 2}, pairs[0])
}

func TestMineCoOccurrence_Baskets(t *testing.T) {
	rs := recordset.New([]recordset.Record{
		{"Order": "o1", "Item": "Milk"},
		{"Order": "o1", "Item": "Bread"},
		{"Order": "o1", "Item": "Milk"}, // duplicate item counts once
		{"Order": "o1", "Item": "Eggs"},
		{"Order": "o2", "Item": "Bread"},
		{"Order": "o2", "Item": "Milk"},
		{"Order": "o3", "Item": "Eggs"}, // single-item basket
		{"Order": "o4", "Item": ""},
		{"Order": "o4", "Item": "Eggs"},
		{"Order": "", "Item": "Milk"},
		{"Order": "", "Item": "Eggs"},
	})

	pairs := MineCoOccurrence(rs, "Order", "Item", 0)
	require.Len(t, pairs, 3)
	assert.Equal(t, CoOccurrencePair{ItemA: "Bread", ItemB: "Milk", Frequency: 2}, pairs[0])
	// ties in first-encountered order
	assert.Equal(t, CoOccurrencePair{ItemA: "Eggs", ItemB: "Milk", Frequency: 1}, pairs[1])
	assert.Equal(t, CoOccurrencePair{ItemA: "Bread", ItemB: "Eggs", Frequency: 1}, pairs[2])

	for _, p := range pairs {
		assert.LessOrEqual(t, p.ItemA, p.ItemB)
	}

	assert.Len(t, MineCoOccurrence(rs, "Order", "Item", 1), 1)
	assert.Empty(t, MineCoOccurrence(recordset.New(nil), "Order", "Item", 5))
}

// ============================================================================
// FORECAST
// ============================================================================

func TestForecast(t *testing.T) {
	projected, trend := Forecast(1000, 1200)
	assert.InDelta(t, 20.0, trend, 1e-9)
	assert.InDelta(t, 1440.0, projected, 1e-9)

	projected, trend = Forecast(0, 100)
	assert.Equal(t, 0.0, trend)
	assert.Equal(t, 100.0, projected)

	projected, trend = Forecast(200, 100)
	assert.InDelta(t, -50.0, trend, 1e-9)
	assert.InDelta(t, 50.0, projected, 1e-9)
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, High, ConfidenceLevel(nil))
	assert.Equal(t, High, ConfidenceLevel([]float64{10, -20}))
	assert.Equal(t, Medium, ConfidenceLevel([]float64{30}))
	assert.Equal(t, Medium, ConfidenceLevel([]float64{-50, 50, 70}))
	assert.Equal(t, Low, ConfidenceLevel([]float64{60}))
	assert.Equal(t, Low, ConfidenceLevel([]float64{-100, 40}))
}

func TestForecastMetrics(t *testing.T) {
	metrics := []MetricSpec{
		{Name: "revenue", Field: "Amount", Func: engine.Sum},
		{Name: "orders", Field: "", Func: engine.Count},
	}
	report := ForecastMetrics(
		PeriodSummary{"revenue": 1000, "orders": 10},
		PeriodSummary{"revenue": 1200, "orders": 10},
		metrics,
	)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "revenue", report.Results[0].Metric)
	assert.InDelta(t, 1440.0, report.Results[0].ProjectedValue, 1e-9)
	assert.Equal(t, 0.0, report.Results[1].TrendPercent)
	// mean |trend| = 10
	assert.Equal(t, High, report.Confidence)
	assert.Equal(t, High, report.Results[1].ConfidenceLevel)
}

func TestForecastBetween(t *testing.T) {
	rs := recordset.New([]recordset.Record{
		{"Date": "2026-01-05", "Amount": 400, "Customer": "a"},
		{"Date": "2026-01-20", "Amount": 600, "Customer": "b"},
		{"Date": "2026-02-03", "Amount": 700, "Customer": "a"},
		{"Date": "2026-02-14", "Amount": 500, "Customer": "a"},
	})
	jan := Period{Label: "Jan", From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	feb := Period{Label: "Feb", From: jan.To, To: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	report := ForecastBetween(rs, "Date", jan, feb, DefaultMetrics("Amount", "Customer"))
	require.Len(t, report.Results, 3)

	revenue := report.Results[0]
	assert.Equal(t, 1000.0, revenue.PeriodA)
	assert.Equal(t, 1200.0, revenue.PeriodB)
	assert.InDelta(t, 1440.0, revenue.ProjectedValue, 1e-9)

	customers := report.Results[1]
	assert.Equal(t, 2.0, customers.PeriodA)
	assert.Equal(t, 1.0, customers.PeriodB)
	assert.InDelta(t, -50.0, customers.TrendPercent, 1e-9)

	basket := report.Results[2]
	assert.Equal(t, 500.0, basket.PeriodA)
	assert.Equal(t, 600.0, basket.PeriodB)

	// (20 + 50 + 20) / 3 = 30
	assert.Equal(t, Medium, report.Confidence)
}

func TestComparePeriods(t *testing.T) {
	metrics := DefaultMetrics("Amount", "Customer")
	got := ComparePeriods(
		PeriodSummary{"revenue": 1000, "customers": 4, "average basket": 50},
		PeriodSummary{"revenue": 800, "customers": 4, "average basket": 50.1},
		metrics,
	)
	require.Len(t, got, 3)
	assert.Equal(t, Decreased, got[0].Direction)
	assert.Equal(t, -200.0, got[0].ChangeAmount)
	assert.Equal(t, "↓ 20.0%", got[0].Display())
	assert.Equal(t, Unchanged, got[1].Direction)
	assert.Equal(t, Unchanged, got[2].Direction)
	assert.Equal(t, "→ No change", got[2].Display())
}

// ============================================================================
// CARDS
// ============================================================================

func TestCards(t *testing.T) {
	anomalies := DetectAnomalies(series(100, 100, 100, 500), DefaultAnomalyThreshold)
	cards := AnomalyCards(anomalies)
	require.Len(t, cards, 4)
	assert.Equal(t, TrendDown, cards[0].Trend)
	assert.Equal(t, "-50.0%", cards[0].Change)
	assert.Equal(t, TrendUp, cards[3].Trend)
	assert.Equal(t, "500.00", cards[3].Value)
	assert.Equal(t, "+150.0%", cards[3].Change)

	pairCards := PairCards([]CoOccurrencePair{{ItemA: "X", ItemB: "Y", Frequency: 1200}})
	require.Len(t, pairCards, 1)
	assert.Equal(t, "X + Y", pairCards[0].Title)
	assert.Equal(t, "1,200", pairCards[0].Value)

	report := ForecastMetrics(PeriodSummary{"revenue": 1000}, PeriodSummary{"revenue": 1200},
		[]MetricSpec{{Name: "revenue", Field: "Amount", Func: engine.Sum}})
	fc := ForecastCards(report)
	require.Len(t, fc, 1)
	assert.Equal(t, "1,440.00", fc[0].Value)
	assert.Equal(t, "+20.0%", fc[0].Change)
	assert.Equal(t, TrendUp, fc[0].Trend)
	assert.Equal(t, "high confidence", fc[0].Detail)

	cc := ComparisonCards(ComparePeriods(PeriodSummary{"revenue": 100}, PeriodSummary{"revenue": 150},
		[]MetricSpec{{Name: "revenue"}}))
	require.Len(t, cc, 1)
	assert.Equal(t, TrendUp, cc[0].Trend)
	assert.Equal(t, "↑ 50.0%", cc[0].Change)
}
