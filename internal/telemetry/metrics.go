package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/feedrelay/sync"

	// CommandMetricsMeterName is the name used for the bot command meter
	CommandMetricsMeterName = "github.com/stacklok/feedrelay/bot"
)

// SyncMetrics holds the OpenTelemetry instruments for sync cycles
type SyncMetrics struct {
	cycleDuration metric.Float64Histogram
	items         metric.Int64Counter
	messages      metric.Int64Counter
	checkpoint    metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"feedrelay_sync_cycle_duration_seconds",
		metric.WithDescription("Duration of sync cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	items, err := meter.Int64Counter(
		"feedrelay_sync_items_total",
		metric.WithDescription("Number of new feed items harvested"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	messages, err := meter.Int64Counter(
		"feedrelay_sync_messages_total",
		metric.WithDescription("Number of messages delivered to subscribed destinations"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	checkpoint, err := meter.Int64Gauge(
		"feedrelay_sync_checkpoint",
		metric.WithDescription("Last processed feed sequence"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration: cycleDuration,
		items:         items,
		messages:      messages,
		checkpoint:    checkpoint,
	}, nil
}

// RecordCycle records the outcome of one cycle attempt. stage is empty for
// successful cycles.
func (m *SyncMetrics) RecordCycle(ctx context.Context, duration time.Duration, success bool, stage string) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.Bool("success", success)}
	if stage != "" {
		attrs = append(attrs, attribute.String("stage", stage))
	}
	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDelivered records the items and messages of a successful cycle and
// the checkpoint it advanced to
func (m *SyncMetrics) RecordDelivered(ctx context.Context, items, messages int, checkpoint uint32) {
	if m == nil {
		return
	}

	m.items.Add(ctx, int64(items))
	m.messages.Add(ctx, int64(messages))
	m.checkpoint.Record(ctx, int64(checkpoint))
}

// CommandMetrics counts chat commands handled by the bot
type CommandMetrics struct {
	commands metric.Int64Counter
}

// NewCommandMetrics creates a new CommandMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCommandMetrics(provider metric.MeterProvider) (*CommandMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	commands, err := provider.Meter(CommandMetricsMeterName).Int64Counter(
		"feedrelay_bot_commands_total",
		metric.WithDescription("Number of chat commands handled"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, err
	}
	return &CommandMetrics{commands: commands}, nil
}

// RecordCommand counts one handled command
func (m *CommandMetrics) RecordCommand(ctx context.Context, command string, success bool) {
	if m == nil {
		return
	}

	m.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.Bool("success", success),
	))
}
