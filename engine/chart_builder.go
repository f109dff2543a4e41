package engine

// ============================================================================
// CHART BUILDER — produces ChartConfig for the chart collaborator
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildTrendChart renders a trend series as a line chart. A secondary
// measure, when present on any point, becomes a second series.
func BuildTrendChart(points []TrendPoint, title string) *ChartConfig {
	if len(points) == 0 {
		return nil
	}

	primary := make([]ChartPoint, 0, len(points))
	var secondary []ChartPoint
	for _, p := range points {
		primary = append(primary, ChartPoint{Label: p.BucketKey, Value: RoundTo2(p.Value)})
		if p.Secondary != nil {
			secondary = append(secondary, ChartPoint{Label: p.BucketKey, Value: RoundTo2(*p.Secondary)})
		}
	}

	name := title
	if name == "" {
		name = "Value"
	}
	series := []ChartSeries{{Name: name, Data: primary}}
	if len(secondary) > 0 {
		series = append(series, ChartSeries{Name: "Secondary", Data: secondary})
	}

	config := &ChartConfig{
		ChartType:  "line",
		Title:      title,
		XAxis:      "Period",
		YAxis:      "Value",
		Series:     series,
		ShowLegend: len(series) > 1,
		ShowGrid:   true,
	}
	config.Colors = assignColors(len(config.Series))
	return config
}

// BuildPivotChart renders a PivotTable as a stacked bar chart: one series
// per column key, one bar per row key. The Grand Total row is omitted.
func BuildPivotChart(p *PivotTable, title string) *ChartConfig {
	if p == nil || len(p.RowKeys) == 0 {
		return nil
	}

	series := make([]ChartSeries, 0, len(p.ColKeys))
	for i, c := range p.ColKeys {
		points := make([]ChartPoint, 0, len(p.RowKeys))
		for _, r := range p.RowKeys {
			points = append(points, ChartPoint{Label: r, Value: RoundTo2(p.Cell(r, c))})
		}
		series = append(series, ChartSeries{
			Name:  c,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	config := &ChartConfig{
		ChartType:  "stacked_bar",
		Title:      title,
		XAxis:      LabelForField(p.RowField),
		YAxis:      LabelForAggregation(p.Func),
		Series:     series,
		ShowLegend: true,
		ShowGrid:   true,
	}
	config.Colors = assignColors(len(config.Series))
	return config
}

// BuildRankingChart renders ranked entries as a single-series bar chart.
func BuildRankingChart(entries []Entry, fn AggFunc, title string) *ChartConfig {
	if len(entries) == 0 {
		return nil
	}

	points := make([]ChartPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, ChartPoint{Label: e.Label, Value: RoundTo2(e.Value)})
	}

	name := title
	if name == "" {
		name = "Value"
	}
	config := &ChartConfig{
		ChartType:  "bar",
		Title:      title,
		YAxis:      LabelForAggregation(fn),
		Series:     []ChartSeries{{Name: name, Data: points}},
		ShowLegend: false,
		ShowGrid:   true,
	}
	config.Colors = assignColors(len(config.Series))
	return config
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
