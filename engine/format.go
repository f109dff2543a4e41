package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// FORMATTING — display helpers shared by the builders and the CLI
// ============================================================================

// FormatCurrency formats an amount with an optional currency prefix and comma separators.
func FormatCurrency(amount float64, currency string) string {
	s := FormatNumber(amount)
	if currency == "" {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return "-" + currency + " " + s[1:]
	}
	return currency + " " + s
}

// FormatNumber formats a value with comma separators and two decimals.
func FormatNumber(v float64) string {
	v = Finite(v)
	negative := v < 0
	if negative {
		v = -v
	}

	cents := int64(math.Round(v * 100))
	intPart := cents / 100
	decPart := cents % 100

	result := fmt.Sprintf("%s.%02d", formatThousands(intPart), decPart)
	if negative && cents != 0 {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	return formatThousands(int64(n))
}

func formatThousands(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", formatThousands(n/1000), n%1000)
}

// FormatValue renders an aggregate for display: counts as integers, everything else with two decimals.
func FormatValue(v float64, fn AggFunc) string {
	if fn == Count || fn == Distinct {
		return FormatInt(int(Finite(v)))
	}
	return FormatNumber(v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(Finite(v)*100) / 100
}

// LabelForField returns a human-readable label for a field name.
func LabelForField(field string) string {
	if field == "" {
		return ""
	}
	return recordset.DisplayName(field)
}

// LabelForAggregation returns a human-readable label for an aggregation.
func LabelForAggregation(fn AggFunc) string {
	switch fn {
	case Sum:
		return "Total"
	case Count:
		return "Count"
	case Avg:
		return "Average"
	case Max:
		return "Maximum"
	case Min:
		return "Minimum"
	case Distinct:
		return "Distinct"
	default:
		return "Value"
	}
}
