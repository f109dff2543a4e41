// Package telemetry exposes Prometheus metrics for report execution.
package telemetry

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog/log"
)

// View results recorded on reportcube_views_total.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultCanceled = "canceled"
)

// Metrics holds every reportcube metric on its own registry, so several
// instances (one per test, one per CLI run) never collide.
type Metrics struct {
	registry *prometheus.Registry

	ViewDuration  *prometheus.HistogramVec
	Views         *prometheus.CounterVec
	RecordsLoaded prometheus.Gauge
}

// NewMetrics creates and registers the metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ViewDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reportcube_view_duration_seconds",
				Help:    "Duration of each report view computation in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"kind"},
		),

		Views: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reportcube_views_total",
				Help: "Total number of report views computed, by kind and result",
			},
			[]string{"kind", "result"},
		),

		RecordsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reportcube_records_loaded",
				Help: "Number of records in the most recently loaded record set",
			},
		),
	}

	m.registry.MustRegister(m.ViewDuration, m.Views, m.RecordsLoaded)
	return m
}

// Registry returns the private registry, for exposition or tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveView records one finished view.
func (m *Metrics) ObserveView(kind string, took time.Duration, result string) {
	m.ViewDuration.WithLabelValues(kind).Observe(took.Seconds())
	m.Views.WithLabelValues(kind, result).Inc()

	log.Debug().
		Str("kind", kind).
		Str("result", result).
		Dur("duration", took).
		Msg("view completed")
}

// SetRecordsLoaded records the size of the loaded record set.
func (m *Metrics) SetRecordsLoaded(n int) {
	m.RecordsLoaded.Set(float64(n))
}

// ViewTimer times a single view.
type ViewTimer struct {
	metrics *Metrics
	kind    string
	start   time.Time
}

// StartViewTimer begins timing a view of the given kind.
func (m *Metrics) StartViewTimer(kind string) *ViewTimer {
	return &ViewTimer{metrics: m, kind: kind, start: time.Now()}
}

// Stop records the elapsed time with the given result.
func (t *ViewTimer) Stop(result string) time.Duration {
	took := time.Since(t.start)
	t.metrics.ObserveView(t.kind, took, result)
	return took
}

// ============================================================================
// SNAPSHOT — gathered values for logging and the CLI
// ============================================================================

// Sample is one gathered series value. Histograms report their sample
// count and sum.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
	Count  uint64            `json:"count,omitempty"`
}

// Snapshot gathers every metric into a flat, name-sorted list.
func (m *Metrics) Snapshot() ([]Sample, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: labels(metric)}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Value = metric.GetHistogram().GetSampleSum()
				s.Count = metric.GetHistogram().GetSampleCount()
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// WriteText writes the Prometheus text exposition of every metric.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func labels(metric *dto.Metric) map[string]string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, lp := range pairs {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
