package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/chris-regnier/licverify/internal/verify"
)

var _ verify.Observer = (*Instruments)(nil)

func newTestInstruments(t *testing.T) (*Instruments, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	inst, err := New(mp)
	require.NoError(t, err)
	return inst, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key string) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestObserveLookup_CountsByOutcome(t *testing.T) {
	inst, reader := newTestInstruments(t)
	ctx := context.Background()

	inst.ObserveLookup(ctx, verify.OutcomeFound)
	inst.ObserveLookup(ctx, verify.OutcomeFound)
	inst.ObserveLookup(ctx, verify.OutcomeNotFound)
	inst.ObserveLookup(ctx, verify.OutcomeUnsupported)

	got := sumByAttr(t, collect(t, reader)["licverify.lookups"], "outcome")
	assert.Equal(t, map[string]int64{"found": 2, "not_found": 1, "unsupported": 1}, got)
}

func TestObserveBatch_RowsOnlyOnSuccess(t *testing.T) {
	inst, reader := newTestInstruments(t)
	ctx := context.Background()

	inst.ObserveBatch(ctx, BatchOK, 12)
	inst.ObserveBatch(ctx, BatchBadColumns, 0)

	metrics := collect(t, reader)
	assert.Equal(t,
		map[string]int64{"ok": 1, "missing_columns": 1},
		sumByAttr(t, metrics["licverify.batch.requests"], "result"))

	hist, ok := metrics["licverify.batch.rows"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, int64(12), hist.DataPoints[0].Sum)
}

func TestNilInstruments_NoPanic(t *testing.T) {
	var inst *Instruments
	assert.NotPanics(t, func() {
		inst.ObserveLookup(context.Background(), verify.OutcomeFound)
		inst.ObserveBatch(context.Background(), BatchOK, 3)
	})
}
