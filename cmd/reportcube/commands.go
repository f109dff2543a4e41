package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spektr-org/reportcube/config"
	"github.com/spektr-org/reportcube/insight"
	"github.com/spektr-org/reportcube/recordset"
	"github.com/spektr-org/reportcube/report"
)

// ============================================================================
// SUBCOMMANDS
// ============================================================================
// Every single-view command builds a one-view report.Definition so flags go
// through the same validation as saved reports.
// ============================================================================

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print inferred fields, kinds and sample values",
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.load(a.file, nil)
			if err != nil {
				return err
			}
			return a.write(func(w *writer) error {
				if a.format == "csv" {
					return w.schemaCSV(rs.Schema())
				}
				return w.json(rs.Schema())
			})
		},
	}
}

func newPivotCmd(a *app) *cobra.Command {
	var v report.View
	var order string
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Cross-tabulate a value by row and column fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "pivot", report.KindPivot
			v.ColumnOrder = splitList(order)
			return a.single(cmd, v)
		},
	}
	f := cmd.Flags()
	f.StringVar(&v.Rows, "rows", "", "Row field (required)")
	f.StringVar(&v.Columns, "cols", "", "Column field (required)")
	f.StringVar(&v.Value, "value", "", "Value field")
	f.StringVar(&v.Func, "func", "sum", "Aggregation: sum, count, avg, min, max, distinct")
	f.StringVar(&order, "column-order", "", "Comma-separated column order")
	f.StringVar(&v.Title, "title", "", "Table and chart title")
	return cmd
}

func newTrendCmd(a *app) *cobra.Command {
	var v report.View
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Aggregate a value per time bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "trend", report.KindTrend
			return a.single(cmd, v)
		},
	}
	trendFlags(cmd, &v)
	return cmd
}

func newAnomaliesCmd(a *app) *cobra.Command {
	var v report.View
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Flag time buckets deviating from the series mean",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "anomalies", report.KindAnomalies
			if !cmd.Flags().Changed("threshold") {
				v.Threshold = a.runtime.AnomalyThreshold
			}
			return a.single(cmd, v)
		},
	}
	trendFlags(cmd, &v)
	cmd.Flags().Float64Var(&v.Threshold, "threshold", insight.DefaultAnomalyThreshold, "Deviation in percent that flags a bucket")
	return cmd
}

func trendFlags(cmd *cobra.Command, v *report.View) {
	f := cmd.Flags()
	f.StringVar(&v.DateField, "date", "", "Date field (required)")
	f.StringVar(&v.Granularity, "granularity", "monthly", "Bucket size: daily, weekly, monthly, yearly")
	f.StringVar(&v.Value, "value", "", "Value field")
	f.StringVar(&v.Func, "func", "sum", "Aggregation: sum, count, avg, min, max, distinct")
	f.IntVar(&v.Window, "window", 0, "Keep only the last N buckets (0 = all)")
	f.StringVar(&v.SecondaryValue, "secondary-value", "", "Value field of the secondary series")
	f.StringVar(&v.SecondaryFunc, "secondary-func", "", "Aggregation of the secondary series")
	f.StringVar(&v.Title, "title", "", "Chart title")
}

func newTopNCmd(a *app) *cobra.Command {
	var v report.View
	cmd := &cobra.Command{
		Use:   "topn",
		Short: "Rank the groups of a field by an aggregated value",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "topn", report.KindTopN
			return a.single(cmd, v)
		},
	}
	f := cmd.Flags()
	f.StringVar(&v.Rows, "by", "", "Field to rank (required)")
	f.StringVar(&v.Value, "value", "", "Value field")
	f.StringVar(&v.Func, "func", "sum", "Aggregation: sum, count, avg, min, max, distinct")
	f.IntVar(&v.Limit, "limit", 10, "Number of entries (0 = all)")
	f.StringVar(&v.Title, "title", "", "Table and chart title")
	return cmd
}

func newBasketCmd(a *app) *cobra.Command {
	var v report.View
	cmd := &cobra.Command{
		Use:   "basket",
		Short: "Find items that occur together in the same session",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "basket", report.KindCoOccurrence
			return a.single(cmd, v)
		},
	}
	f := cmd.Flags()
	f.StringVar(&v.SessionField, "session", "", "Field grouping records into sessions (required)")
	f.StringVar(&v.ItemField, "item", "", "Item field (required)")
	f.IntVar(&v.Limit, "limit", 10, "Number of pairs (0 = all)")
	return cmd
}

func newForecastCmd(a *app) *cobra.Command {
	var (
		v                report.View
		periodA, periodB string
		amount, customer string
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project revenue, customers and basket size one period ahead",
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Name, v.Kind = "forecast", report.KindForecast
			var err error
			if v.PeriodA, err = parsePeriod("A", periodA); err != nil {
				return err
			}
			if v.PeriodB, err = parsePeriod("B", periodB); err != nil {
				return err
			}
			v.Metrics = insight.DefaultMetrics(amount, customer)
			return a.single(cmd, v)
		},
	}
	f := cmd.Flags()
	f.StringVar(&v.DateField, "date", "", "Date field (required)")
	f.StringVar(&periodA, "period-a", "", "Earlier period FROM:TO, dates as YYYY-MM-DD (required)")
	f.StringVar(&periodB, "period-b", "", "Later period FROM:TO, dates as YYYY-MM-DD (required)")
	f.StringVar(&amount, "amount", "Amount", "Amount field")
	f.StringVar(&customer, "customer", "Customer", "Customer field")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		reportPath string
		orders     []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute every view of a saved report definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := config.LoadReport(reportPath)
			if err != nil {
				return err
			}

			if len(orders) > 0 {
				for _, o := range orders {
					name, cols, ok := strings.Cut(o, "=")
					if !ok || !def.SetColumnOrder(strings.TrimSpace(name), splitList(cols)) {
						return fmt.Errorf("invalid --set-order %q (want pivot-view=Col1,Col2)", o)
					}
				}
				if err := config.SaveReport(def, reportPath); err != nil {
					return err
				}
				log.Info().Str("report", reportPath).Int("views", len(orders)).Msg("column order saved")
			}

			source := a.file
			if source == "" {
				source = config.SourcePath(def, reportPath)
			}
			rs, err := a.load(source, def.Aliases)
			if err != nil {
				return err
			}
			return a.execute(cmd, def, rs)
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "Path to the report definition (.yaml)")
	cmd.Flags().StringArrayVar(&orders, "set-order", nil, `Persist a pivot column order "view=Col1,Col2" (repeatable)`)
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

// single runs one view over the --file data set.
func (a *app) single(cmd *cobra.Command, v report.View) error {
	def := &report.Definition{Name: v.Name, Views: []report.View{v}}
	if err := def.Validate(); err != nil {
		return err
	}
	rs, err := a.load(a.file, nil)
	if err != nil {
		return err
	}
	return a.execute(cmd, def, rs)
}

func (a *app) execute(cmd *cobra.Command, def *report.Definition, rs *recordset.RecordSet) error {
	out, err := report.Run(cmd.Context(), def, rs,
		report.WithRecorder(a.metrics),
		report.WithConcurrency(a.runtime.Concurrency),
	)
	if err != nil {
		return err
	}

	return a.write(func(w *writer) error {
		if a.format == "csv" {
			return w.outputCSV(out)
		}
		if len(out.Views) == 1 {
			return w.json(out.Views[0])
		}
		return w.json(out)
	})
}

func parsePeriod(name, s string) (*report.PeriodSpec, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok || from == "" || to == "" {
		return nil, fmt.Errorf("invalid period %s %q (want FROM:TO)", name, s)
	}
	return &report.PeriodSpec{Label: name, From: strings.TrimSpace(from), To: strings.TrimSpace(to)}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
