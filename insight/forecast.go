package insight

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// FORECAST ENGINE — two-period linear extrapolation
// ============================================================================
//   trend%    = (B - A) / A × 100          (0 when A == 0)
//   projected = B × (1 + trend%/100)       (the A→B change repeated once)
//
// Confidence is a heuristic over the whole metric list, not an interval:
//   mean |trend%| < 30 → high, < 60 → medium, else low.
// ============================================================================

// Confidence is the heuristic reliability bucket of a forecast.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// ForecastResult is the projection of one metric into the next period.
type ForecastResult struct {
	Metric          string     `json:"metric"`
	PeriodA         float64    `json:"periodA"`
	PeriodB         float64    `json:"periodB"`
	ProjectedValue  float64    `json:"projectedValue"`
	TrendPercent    float64    `json:"trendPercent"`
	ConfidenceLevel Confidence `json:"confidenceLevel"`
}

// ForecastReport holds every tracked metric plus the shared confidence.
type ForecastReport struct {
	Results    []ForecastResult `json:"results"`
	Confidence Confidence       `json:"confidence"`
}

// MetricSpec names a tracked metric and how to aggregate it over a period.
type MetricSpec struct {
	Name  string         `json:"name" yaml:"name"`
	Field string         `json:"field" yaml:"field"`
	Func  engine.AggFunc `json:"func" yaml:"func"`
}

// PeriodSummary maps metric name to its aggregated value over one period.
type PeriodSummary map[string]float64

// Period is a half-open date range [From, To).
type Period struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// DefaultMetrics tracks revenue, distinct customers and average basket.
func DefaultMetrics(amountField, customerField string) []MetricSpec {
	return []MetricSpec{
		{Name: "revenue", Field: amountField, Func: engine.Sum},
		{Name: "customers", Field: customerField, Func: engine.Distinct},
		{Name: "average basket", Field: amountField, Func: engine.Avg},
	}
}

// Forecast projects periodB one step forward along the A→B trend.
func Forecast(periodA, periodB float64) (projected, trendPercent float64) {
	if periodA != 0 {
		trendPercent = engine.Finite((periodB - periodA) * 100 / periodA)
	}
	projected = engine.Finite(periodB * (1 + trendPercent/100))
	return projected, trendPercent
}

// ConfidenceLevel buckets the mean absolute trend of a set of forecasts.
// No trends at all means nothing moved: high.
func ConfidenceLevel(trendPercents []float64) Confidence {
	if len(trendPercents) == 0 {
		return High
	}
	absolute := make([]float64, len(trendPercents))
	for i, t := range trendPercents {
		absolute[i] = abs(t)
	}
	switch avg := stat.Mean(absolute, nil); {
	case avg < 30:
		return High
	case avg < 60:
		return Medium
	default:
		return Low
	}
}

// SummarizePeriod aggregates every metric over one RecordSet.
func SummarizePeriod(rs *recordset.RecordSet, metrics []MetricSpec) PeriodSummary {
	out := make(PeriodSummary, len(metrics))
	for _, m := range metrics {
		out[m.Name] = engine.Total(rs, m.Field, m.Func)
	}
	return out
}

// ForecastMetrics projects each metric from summaries a and b. A metric
// missing from a summary reads as 0.
func ForecastMetrics(a, b PeriodSummary, metrics []MetricSpec) ForecastReport {
	results := make([]ForecastResult, 0, len(metrics))
	trends := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		projected, trend := Forecast(a[m.Name], b[m.Name])
		results = append(results, ForecastResult{
			Metric:         m.Name,
			PeriodA:        a[m.Name],
			PeriodB:        b[m.Name],
			ProjectedValue: projected,
			TrendPercent:   trend,
		})
		trends = append(trends, trend)
	}

	confidence := ConfidenceLevel(trends)
	for i := range results {
		results[i].ConfidenceLevel = confidence
	}
	return ForecastReport{Results: results, Confidence: confidence}
}

// ForecastBetween slices rs into two date periods and forecasts every metric.
func ForecastBetween(rs *recordset.RecordSet, dateField string, a, b Period, metrics []MetricSpec) ForecastReport {
	sa := SummarizePeriod(recordset.Between(rs, dateField, a.From, a.To), metrics)
	sb := SummarizePeriod(recordset.Between(rs, dateField, b.From, b.To), metrics)
	return ForecastMetrics(sa, sb, metrics)
}
