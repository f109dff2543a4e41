package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/reportcube/recordset"
)

func TestBucketKey(t *testing.T) {
	ts := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		g     Granularity
		want  string
	}{
		{"daily time", ts, Daily, "2026-01-15"},
		{"daily string", "2026-01-15", Daily, "2026-01-15"},
		{"weekly day 15", ts, Weekly, "Week 3"},
		{"weekly day 1", "2026-02-01", Weekly, "Week 1"},
		{"weekly day 7", "2026-02-07", Weekly, "Week 1"},
		{"weekly day 8", "2026-02-08", Weekly, "Week 2"},
		{"weekly day 31", "2026-01-31", Weekly, "Week 5"},
		{"monthly", ts, Monthly, "Jan 2026"},
		{"monthly from label", "Mar 2025", Monthly, "Mar 2025"},
		{"yearly", ts, Yearly, "2026"},
		{"epoch millis", ts.UnixMilli(), Daily, "2026-01-15"},
		{"unparseable", "someday", Monthly, UnknownBucket},
		{"nil", nil, Daily, UnknownBucket},
		{"empty marker", "N/A", Yearly, UnknownBucket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketKey(tt.value, tt.g))
		})
	}

	assert.Panics(t, func() { BucketKey(ts, Granularity("hourly")) })
}

func TestCompareBuckets(t *testing.T) {
	assert.Equal(t, -1, CompareBuckets("Dec 2025", "Jan 2026", Monthly))
	assert.Equal(t, 1, CompareBuckets("Feb 2026", "Jan 2026", Monthly))
	assert.Equal(t, -1, CompareBuckets("Week 2", "Week 10", Weekly))
	assert.Equal(t, -1, CompareBuckets(UnknownBucket, "2020", Yearly))
	assert.Equal(t, 0, CompareBuckets("2026-01-01", "2026-01-01", Daily))
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Month")
	require.NoError(t, err)
	assert.Equal(t, Monthly, g)

	_, err = ParseGranularity("fortnightly")
	assert.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestBuildSeries_Monthly(t *testing.T) {
	rs := ordersRecordSet()
	points := BuildSeries(rs, TimeBucketer{Field: "Date", Granularity: Monthly}, "Amount", Sum)

	require.Len(t, points, 3)
	assert.Equal(t, UnknownBucket, points[0].BucketKey)
	assert.Equal(t, 2.5, points[0].Value)
	assert.Equal(t, "Jan 2026", points[1].BucketKey)
	assert.Equal(t, 22.5, points[1].Value)
	assert.Equal(t, "Feb 2026", points[2].BucketKey)
	assert.Equal(t, 0.0, points[2].Value)
	assert.Nil(t, points[0].Secondary)
}

func TestBuildSeries_WindowSortsBeforeTruncating(t *testing.T) {
	// input is out of chronological order on purpose
	rs := recordset.New([]recordset.Record{
		{"d": "2026-04-01", "v": 4},
		{"d": "2026-01-01", "v": 1},
		{"d": "2026-03-01", "v": 3},
		{"d": "2026-02-01", "v": 2},
	})
	points := BuildSeries(rs, TimeBucketer{Field: "d", Granularity: Monthly}, "v", Sum, WithWindow(2))

	require.Len(t, points, 2)
	assert.Equal(t, "Mar 2026", points[0].BucketKey)
	assert.Equal(t, "Apr 2026", points[1].BucketKey)
	assert.Equal(t, []float64{3, 4}, SeriesValues(points))

	all := BuildSeries(rs, TimeBucketer{Field: "d", Granularity: Monthly}, "v", Sum, WithWindow(0))
	assert.Len(t, all, 4)
}

func TestBuildSeries_Secondary(t *testing.T) {
	rs := ordersRecordSet()
	points := BuildSeries(rs, TimeBucketer{Field: "Date", Granularity: Yearly}, "Amount", Sum,
		WithSecondary("", Count))

	require.Len(t, points, 2)
	require.NotNil(t, points[1].Secondary)
	assert.Equal(t, "2026", points[1].BucketKey)
	assert.Equal(t, 5.0, *points[1].Secondary)

	chart := BuildTrendChart(points, "Revenue")
	require.NotNil(t, chart)
	assert.Len(t, chart.Series, 2)
	assert.True(t, chart.ShowLegend)
	assert.Nil(t, BuildTrendChart(nil, "Revenue"))
}

func TestBuildSeries_PanicsOnInvalidConfig(t *testing.T) {
	rs := ordersRecordSet()
	assert.Panics(t, func() {
		BuildSeries(rs, TimeBucketer{Field: "Date", Granularity: "hourly"}, "Amount", Sum)
	})
	assert.Panics(t, func() {
		BuildSeries(rs, TimeBucketer{Field: "Date", Granularity: Daily}, "Amount", "median")
	})
}
