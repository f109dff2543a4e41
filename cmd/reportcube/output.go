package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/spektr-org/reportcube/engine"
	"github.com/spektr-org/reportcube/recordset"
	"github.com/spektr-org/reportcube/report"
)

// ============================================================================
// OUTPUT — JSON for programs, CSV for spreadsheets
// ============================================================================

type writer struct {
	w      io.Writer
	pretty bool
}

// write opens the destination, hands it to fn and closes it.
func (a *app) write(fn func(w *writer) error) error {
	f, closeFn, err := a.output()
	if err != nil {
		return err
	}
	if err := fn(&writer{w: f, pretty: a.format == "pretty"}); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func (w *writer) json(v any) error {
	var out []byte
	var err error
	if w.pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w.w, string(out))
	return err
}

// outputCSV writes every view as its own CSV block. Blocks after the first
// are preceded by a blank line and a "# name" marker.
func (w *writer) outputCSV(out *report.Output) error {
	cw := csv.NewWriter(w.w)
	for i, v := range out.Views {
		if len(out.Views) > 1 {
			if i > 0 {
				_ = cw.Write([]string{""})
			}
			_ = cw.Write([]string{"# " + v.Name})
		}
		writeViewCSV(cw, v)
	}
	cw.Flush()
	return cw.Error()
}

func writeViewCSV(cw *csv.Writer, v *report.ViewResult) {
	switch {
	case v.Kind == report.KindAnomalies:
		_ = cw.Write([]string{"Bucket", "Observed", "Deviation %", "Direction"})
		for _, a := range v.Anomalies {
			_ = cw.Write([]string{a.BucketKey, fmtNum(a.ObservedValue), fmtNum(a.DeviationPercent), string(a.Direction)})
		}
	case v.Kind == report.KindCoOccurrence:
		_ = cw.Write([]string{"Item A", "Item B", "Frequency"})
		for _, p := range v.Pairs {
			_ = cw.Write([]string{p.ItemA, p.ItemB, strconv.Itoa(p.Frequency)})
		}
	case v.Forecast != nil:
		_ = cw.Write([]string{"Metric", "Period A", "Period B", "Projected", "Trend %", "Confidence"})
		for _, r := range v.Forecast.Results {
			_ = cw.Write([]string{r.Metric, fmtNum(r.PeriodA), fmtNum(r.PeriodB), fmtNum(r.ProjectedValue),
				fmtNum(r.TrendPercent), string(r.ConfidenceLevel)})
		}
	case v.Table != nil && len(v.Table.Columns) > 0:
		writeTableCSV(cw, v.Table)
	case v.Chart != nil && len(v.Chart.Series) > 0:
		writeChartCSV(cw, v.Chart)
	default:
		_ = cw.Write([]string{"Result", "No data"})
	}
}

func writeTableCSV(cw *csv.Writer, t *engine.TableData) {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Label
	}
	_ = cw.Write(headers)
	for _, row := range t.Rows {
		_ = cw.Write(row)
	}
}

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		_ = cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			_ = cw.Write([]string{d.Label, fmtNum(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	_ = cw.Write(headers)

	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		_ = cw.Write(row)
	}
}

func (w *writer) schemaCSV(s recordset.Schema) error {
	cw := csv.NewWriter(w.w)
	_ = cw.Write([]string{"Field", "Label", "Kind", "Distinct", "Empty", "Samples"})
	for _, f := range s.Fields {
		_ = cw.Write([]string{f.Name, f.DisplayName, f.Kind.String(),
			strconv.Itoa(f.Distinct), strconv.Itoa(f.Empty), strings.Join(f.SampleValues, "; ")})
	}
	cw.Flush()
	return cw.Error()
}

// fmtNum prints whole numbers without decimals and the rest with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
