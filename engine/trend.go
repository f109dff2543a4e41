package engine

import (
	"sort"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// TREND SERIES — time-bucketed aggregate series
// ============================================================================
// One point per observed bucket; empty buckets are not synthesized.
// Points are sorted chronologically, then (if a window is set) truncated to
// the most recent N.
// ============================================================================

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	BucketKey string   `json:"bucketKey"`
	Value     float64  `json:"value"`
	Secondary *float64 `json:"secondaryValue,omitempty"`
}

// BuildSeries aggregates valueField per time bucket.
func BuildSeries(rs *recordset.RecordSet, bucketer TimeBucketer, valueField string, fn AggFunc, opts ...SeriesOption) []TrendPoint {
	fn.mustValid()
	bucketer.Granularity.mustValid()
	cfg := applySeriesOptions(opts)

	keyFn := func(i int) GroupKey { return NewGroupKey(bucketer.Key(rs, i)) }
	primary := aggregateBy(rs, keyFn, valueField, fn)

	var secondary *Result
	if cfg.SecondaryFunc != "" {
		cfg.SecondaryFunc.mustValid()
		secondary = aggregateBy(rs, keyFn, cfg.SecondaryField, cfg.SecondaryFunc)
	}

	keys := firstParts(primary)
	sort.SliceStable(keys, func(i, j int) bool { return bucketer.Less(keys[i], keys[j]) })
	if cfg.Window > 0 && len(keys) > cfg.Window {
		keys = keys[len(keys)-cfg.Window:]
	}

	points := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		pt := TrendPoint{BucketKey: k, Value: primary.Value(NewGroupKey(k))}
		if secondary != nil {
			v := secondary.Value(NewGroupKey(k))
			pt.Secondary = &v
		}
		points = append(points, pt)
	}
	return points
}

// SeriesValues extracts point values in order.
func SeriesValues(points []TrendPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
