package telemetry

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveView(t *testing.T) {
	m := NewMetrics()

	m.ObserveView("pivot", 2*time.Millisecond, ResultOK)
	m.ObserveView("pivot", 3*time.Millisecond, ResultOK)
	m.ObserveView("trend", time.Millisecond, ResultError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Views.WithLabelValues("pivot", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Views.WithLabelValues("trend", ResultError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ViewDuration))
}

func TestMetrics_RecordsLoaded(t *testing.T) {
	m := NewMetrics()
	m.SetRecordsLoaded(1200)
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.RecordsLoaded))
}

func TestMetrics_ViewTimer(t *testing.T) {
	m := NewMetrics()
	took := m.StartViewTimer("topn").Stop(ResultCanceled)
	assert.GreaterOrEqual(t, took, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Views.WithLabelValues("topn", ResultCanceled)))
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.ObserveView("pivot", time.Millisecond, ResultOK)
	assert.Equal(t, 0, testutil.CollectAndCount(b.Views))
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.SetRecordsLoaded(5)
	m.ObserveView("pivot", 250*time.Millisecond, ResultOK)

	samples, err := m.Snapshot()
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "reportcube_records_loaded", samples[0].Name)
	assert.Equal(t, 5.0, samples[0].Value)

	assert.Equal(t, "reportcube_view_duration_seconds", samples[1].Name)
	assert.Equal(t, uint64(1), samples[1].Count)
	assert.InDelta(t, 0.25, samples[1].Value, 1e-9)
	assert.Equal(t, "pivot", samples[1].Labels["kind"])

	assert.Equal(t, "reportcube_views_total", samples[2].Name)
	assert.Equal(t, map[string]string{"kind": "pivot", "result": ResultOK}, samples[2].Labels)
}

func TestMetrics_WriteText(t *testing.T) {
	m := NewMetrics()
	m.ObserveView("trend", time.Millisecond, ResultOK)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	out := buf.String()
	assert.True(t, strings.Contains(out, `reportcube_views_total{kind="trend",result="ok"} 1`))
	assert.Contains(t, out, "# TYPE reportcube_view_duration_seconds histogram")
}
