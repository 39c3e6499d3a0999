// Package otel holds small tracing helpers shared by the sync pipeline.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on sync spans.
const (
	AttrRunID        = attribute.Key("sync.run_id")
	AttrStage        = attribute.Key("sync.stage")
	AttrBoundary     = attribute.Key("feed.boundary")
	AttrItemCount    = attribute.Key("feed.item_count")
	AttrCheckpoint   = attribute.Key("feed.checkpoint")
	AttrDestinations = attribute.Key("delivery.destinations")
	AttrDestination  = attribute.Key("delivery.destination")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracing is disabled and tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status description stays generic so
// connection strings and tokens never end up in span status; the error itself
// is attached as an event.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "operation failed")
}
