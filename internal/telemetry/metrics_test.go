package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader, scope string) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	syncMetrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, syncMetrics)
	syncMetrics.RecordCycle(context.Background(), time.Second, true, "")
	syncMetrics.RecordDelivered(context.Background(), 1, 1, 1)

	commandMetrics, err := NewCommandMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, commandMetrics)
	commandMetrics.RecordCommand(context.Background(), "subscribe", true)
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	metrics.RecordCycle(ctx, 2*time.Second, true, "")
	metrics.RecordCycle(ctx, time.Second, false, "delivery")
	metrics.RecordDelivered(ctx, 4, 8, 105)
	metrics.RecordDelivered(ctx, 1, 2, 106)

	found := collect(t, reader, SyncMetricsMeterName)

	hist, ok := found["feedrelay_sync_cycle_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)

	items, ok := found["feedrelay_sync_items_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, items.DataPoints, 1)
	assert.Equal(t, int64(5), items.DataPoints[0].Value)

	messages, ok := found["feedrelay_sync_messages_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(10), messages.DataPoints[0].Value)

	checkpoint, ok := found["feedrelay_sync_checkpoint"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(106), checkpoint.DataPoints[0].Value)
}

func TestCommandMetrics_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	metrics, err := NewCommandMetrics(mp)
	require.NoError(t, err)

	metrics.RecordCommand(ctx, "subscribe", true)
	metrics.RecordCommand(ctx, "subscribe", true)
	metrics.RecordCommand(ctx, "unsubscribe", false)

	found := collect(t, reader, CommandMetricsMeterName)
	commands, ok := found["feedrelay_bot_commands_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, commands.DataPoints, 2)
}
