// Package reportcube is an in-memory aggregation and pivot engine for flat
// report exports.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/reportcube/engine"
//	    "github.com/spektr-org/reportcube/helpers"
//	)
//
//	rs, err := helpers.Load("sales.csv")
//	p := engine.Pivot(rs, "Region", "Product", "Amount", engine.Sum)
//	table := engine.BuildPivotTable(p, "Sales by region")
//
// Packages:
//
//	recordset  records, field kind inference, aliases, filters
//	engine     group-by, pivot, time buckets, trend series, top-N, render types
//	insight    anomalies, co-occurrence, forecasts, period comparison, cards
//	report     declarative report definitions run view by view
//	helpers    CSV / TSV / JSON loading
//	config     runtime settings and saved report definitions
//	telemetry  Prometheus metrics for view execution
//
// Computation is local; nothing here fetches data or renders it.
package reportcube
