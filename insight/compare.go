package insight

import (
	"fmt"
)

// ============================================================================
// PERIOD COMPARISON — change between two summaries
// ============================================================================

// Change directions. Moves within ±0.5% count as unchanged.
const (
	Increased = "increased"
	Decreased = "decreased"
	Unchanged = "unchanged"
)

// Comparison is the change of one metric between two periods.
type Comparison struct {
	Metric        string  `json:"metric"`
	Earliest      float64 `json:"earliest"`
	Latest        float64 `json:"latest"`
	ChangeAmount  float64 `json:"changeAmount"`
	ChangePercent float64 `json:"changePercent"`
	Direction     string  `json:"direction"`
}

// Display renders the change as an arrow and percent.
func (c Comparison) Display() string {
	switch c.Direction {
	case Increased:
		return fmt.Sprintf("↑ %.1f%%", abs(c.ChangePercent))
	case Decreased:
		return fmt.Sprintf("↓ %.1f%%", abs(c.ChangePercent))
	default:
		return "→ No change"
	}
}

// ComparePeriods reports the change of each metric from a to b.
func ComparePeriods(a, b PeriodSummary, metrics []MetricSpec) []Comparison {
	out := make([]Comparison, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, compare(m.Name, a[m.Name], b[m.Name]))
	}
	return out
}

func compare(metric string, earliest, latest float64) Comparison {
	change := latest - earliest
	var pct float64
	if earliest != 0 {
		pct = change * 100 / earliest
	}

	direction := Unchanged
	if pct > 0.5 {
		direction = Increased
	} else if pct < -0.5 {
		direction = Decreased
	}

	return Comparison{
		Metric:        metric,
		Earliest:      earliest,
		Latest:        latest,
		ChangeAmount:  change,
		ChangePercent: pct,
		Direction:     direction,
	}
}
