package insight

import (
	"fmt"

	"github.com/spektr-org/reportcube/engine"
)

// ============================================================================
// INSIGHT CARDS — render-ready findings
// ============================================================================

// Trend directions shown on a card.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// Card is one finding for the insight-card collaborator.
type Card struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
	Trend  string `json:"trend"`
	Detail string `json:"detail,omitempty"`
}

// AnomalyCards turns anomalies into cards, one per flagged bucket.
func AnomalyCards(anomalies []Anomaly) []Card {
	cards := make([]Card, 0, len(anomalies))
	for _, a := range anomalies {
		trend, detail := TrendDown, "Below the period average"
		if a.Direction == Over {
			trend, detail = TrendUp, "Above the period average"
		}
		cards = append(cards, Card{
			Title:  a.BucketKey,
			Value:  engine.FormatNumber(a.ObservedValue),
			Change: fmt.Sprintf("%+.1f%%", a.DeviationPercent),
			Trend:  trend,
			Detail: detail,
		})
	}
	return cards
}

// PairCards turns co-occurrence pairs into cards.
func PairCards(pairs []CoOccurrencePair) []Card {
	cards := make([]Card, 0, len(pairs))
	for _, p := range pairs {
		cards = append(cards, Card{
			Title:  fmt.Sprintf("%s + %s", p.ItemA, p.ItemB),
			Value:  engine.FormatInt(p.Frequency),
			Trend:  TrendNeutral,
			Detail: "baskets containing both",
		})
	}
	return cards
}

// ForecastCards turns a forecast report into one card per metric.
func ForecastCards(report ForecastReport) []Card {
	cards := make([]Card, 0, len(report.Results))
	for _, r := range report.Results {
		trend := TrendNeutral
		switch {
		case r.TrendPercent > 0:
			trend = TrendUp
		case r.TrendPercent < 0:
			trend = TrendDown
		}
		cards = append(cards, Card{
			Title:  r.Metric,
			Value:  engine.FormatNumber(r.ProjectedValue),
			Change: fmt.Sprintf("%+.1f%%", r.TrendPercent),
			Trend:  trend,
			Detail: fmt.Sprintf("%s confidence", r.ConfidenceLevel),
		})
	}
	return cards
}

// ComparisonCards turns period comparisons into cards.
func ComparisonCards(comparisons []Comparison) []Card {
	cards := make([]Card, 0, len(comparisons))
	for _, c := range comparisons {
		trend := TrendNeutral
		switch c.Direction {
		case Increased:
			trend = TrendUp
		case Decreased:
			trend = TrendDown
		}
		cards = append(cards, Card{
			Title:  c.Metric,
			Value:  engine.FormatNumber(c.Latest),
			Change: c.Display(),
			Trend:  trend,
			Detail: fmt.Sprintf("from %s", engine.FormatNumber(c.Earliest)),
		})
	}
	return cards
}
