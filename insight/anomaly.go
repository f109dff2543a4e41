// Package insight derives findings from engine output: anomalies in a trend
// series, items bought together, short-horizon forecasts and the cards that
// present them.
package insight

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spektr-org/reportcube/engine"
)

// ============================================================================
// ANOMALY DETECTOR — deviation from the series mean
// ============================================================================
//   deviation% = (value - mean) / mean × 100    (0 when mean == 0)
//   flagged iff |deviation%| > threshold        (strictly greater)
// ============================================================================

// DefaultAnomalyThreshold is the deviation, in percent, that flags a point.
const DefaultAnomalyThreshold = 30.0

// Direction tells whether an anomaly sits above or below the mean.
type Direction string

const (
	Over  Direction = "over"
	Under Direction = "under"
)

// Anomaly is one flagged point of a trend series.
type Anomaly struct {
	BucketKey        string    `json:"bucketKey"`
	ObservedValue    float64   `json:"observedValue"`
	DeviationPercent float64   `json:"deviationPercent"`
	Direction        Direction `json:"direction"`
}

// DetectAnomalies flags points deviating from the series mean by more than
// thresholdPercent. Output follows series order.
func DetectAnomalies(series []engine.TrendPoint, thresholdPercent float64) []Anomaly {
	if len(series) == 0 {
		return nil
	}

	values := engine.SeriesValues(series)
	mean := stat.Mean(values, nil)

	var out []Anomaly
	for _, p := range series {
		dev := deviationPercent(p.Value, mean)
		if abs(dev) <= thresholdPercent {
			continue
		}
		dir := Under
		if dev > 0 {
			dir = Over
		}
		out = append(out, Anomaly{
			BucketKey:        p.BucketKey,
			ObservedValue:    p.Value,
			DeviationPercent: dev,
			Direction:        dir,
		})
	}
	return out
}

func deviationPercent(value, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return engine.Finite((value - mean) * 100 / mean)
}

// SeriesStats summarizes a trend series.
type SeriesStats struct {
	Points int     `json:"points"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Total  float64 `json:"total"`
}

// Describe computes summary statistics over a series. An empty series
// yields the zero value.
func Describe(series []engine.TrendPoint) SeriesStats {
	if len(series) == 0 {
		return SeriesStats{}
	}
	values := engine.SeriesValues(series)
	s := SeriesStats{
		Points: len(values),
		Mean:   stat.Mean(values, nil),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Total:  floats.Sum(values),
	}
	if len(values) > 1 {
		s.StdDev = engine.Finite(stat.StdDev(values, nil))
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
