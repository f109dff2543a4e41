package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spektr-org/reportcube/config"
	"github.com/spektr-org/reportcube/helpers"
	"github.com/spektr-org/reportcube/recordset"
	"github.com/spektr-org/reportcube/telemetry"
)

// ============================================================================
// REPORTCUBE CLI — pivots, trends and insights over report exports
// ============================================================================

const version = "0.3.0"

// app carries global flags and shared state across subcommands.
type app struct {
	file        string
	format      string
	out         string
	envFile     string
	aliases     []string
	filters     []string
	showMetrics bool

	runtime config.Runtime
	metrics *telemetry.Metrics
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("reportcube failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{metrics: telemetry.NewMetrics()}

	rootCmd := &cobra.Command{
		Use:     "reportcube",
		Short:   "Pivot, trend and insight engine for flat report exports",
		Version: version,
		Long: `reportcube aggregates flat report exports (CSV, TSV, JSON) in memory.

Examples:
  reportcube describe --file sales.csv
  reportcube pivot --file sales.csv --rows Region --cols Product --value Amount --func sum
  reportcube trend --file sales.csv --date "Order Date" --granularity monthly --value Amount --window 6
  reportcube topn --file sales.csv --by Product --value Amount --limit 10 --format csv
  reportcube anomalies --file sales.csv --date "Order Date" --value Amount --threshold 30
  reportcube basket --file sales.csv --session "Order ID" --item Product --limit 5
  reportcube forecast --file sales.csv --date "Order Date" --amount Amount --customer Customer \
      --period-a 2026-01-01:2026-02-01 --period-b 2026-02-01:2026-03-01
  reportcube run --report store.yaml --format pretty

Environment:
  REPORTCUBE_LOG_LEVEL           trace|debug|info|warn|error (default info)
  REPORTCUBE_SAMPLE_SIZE         values sampled per field for type inference (default 1000, 0 = all)
  REPORTCUBE_ANOMALY_THRESHOLD   default anomaly threshold in percent (default 30)
  REPORTCUBE_CONCURRENCY         max views computed at once by "run" (default unbounded)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.file, "file", "", "Path to the data file (.csv, .tsv or .json)")
	pf.StringVar(&a.format, "format", "json", "Output format: json, pretty, csv")
	pf.StringVar(&a.out, "out", "", "Write output to file instead of stdout")
	pf.StringVar(&a.envFile, "env", ".env", "Env file to load before reading REPORTCUBE_* variables")
	pf.StringArrayVar(&a.aliases, "alias", nil, `Field alias "Canonical=Alt 1,Alt 2" (repeatable)`)
	pf.StringArrayVar(&a.filters, "filter", nil, `Keep records where "Field=v1,v2" (repeatable)`)
	pf.BoolVar(&a.showMetrics, "metrics", false, "Print Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newDescribeCmd(a),
		newPivotCmd(a),
		newTrendCmd(a),
		newTopNCmd(a),
		newAnomaliesCmd(a),
		newBasketCmd(a),
		newForecastCmd(a),
		newRunCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	switch a.format {
	case "json", "pretty", "csv":
	default:
		return fmt.Errorf("unknown format %q (want json, pretty or csv)", a.format)
	}

	cfg, err := config.LoadRuntime(a.envFile)
	if err != nil {
		return err
	}
	a.runtime = cfg
	zerolog.SetGlobalLevel(cfg.LogLevel)
	return nil
}

func (a *app) finish() error {
	samples, err := a.metrics.Snapshot()
	if err != nil {
		return err
	}
	for _, s := range samples {
		log.Debug().Str("metric", s.Name).Interface("labels", s.Labels).Float64("value", s.Value).Msg("metric")
	}
	if a.showMetrics {
		return a.metrics.WriteText(os.Stderr)
	}
	return nil
}

// load reads the data file with the global alias table and filters applied.
func (a *app) load(path string, extra recordset.AliasTable) (*recordset.RecordSet, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}

	aliases, err := parseAliases(a.aliases)
	if err != nil {
		return nil, err
	}
	for canonical, alts := range extra {
		aliases[canonical] = append(aliases[canonical], alts...)
	}

	rs, err := helpers.Load(path, helpers.WithRecordOptions(
		recordset.WithSampleSize(a.runtime.SampleSize),
		recordset.WithAliases(aliases),
	))
	if err != nil {
		return nil, err
	}
	a.metrics.SetRecordsLoaded(rs.Len())
	log.Info().Str("file", path).Int("records", rs.Len()).Int("fields", len(rs.Fields())).Msg("loaded")

	filters, err := parseFilters(a.filters)
	if err != nil {
		return nil, err
	}
	if !filters.IsEmpty() {
		rs = recordset.Filter(rs, filters)
		log.Info().Int("records", rs.Len()).Msg("filtered")
	}
	return rs, nil
}

// output opens the destination writer; the returned func closes it.
func (a *app) output() (*os.File, func() error, error) {
	if a.out == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() error {
		log.Info().Str("file", a.out).Msg("output written")
		return f.Close()
	}, nil
}

func parseAliases(specs []string) (recordset.AliasTable, error) {
	table := make(recordset.AliasTable)
	for _, spec := range specs {
		canonical, alts, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(canonical) == "" {
			return nil, fmt.Errorf("invalid --alias %q (want Canonical=Alt1,Alt2)", spec)
		}
		canonical = strings.TrimSpace(canonical)
		for _, alt := range strings.Split(alts, ",") {
			if alt = strings.TrimSpace(alt); alt != "" {
				table[canonical] = append(table[canonical], alt)
			}
		}
	}
	return table, nil
}

func parseFilters(specs []string) (recordset.Filters, error) {
	filters := make(recordset.Filters)
	for _, spec := range specs {
		field, values, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("invalid --filter %q (want Field=v1,v2)", spec)
		}
		field = strings.TrimSpace(field)
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				filters[field] = append(filters[field], v)
			}
		}
	}
	return filters, nil
}
