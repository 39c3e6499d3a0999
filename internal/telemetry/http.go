package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPInstrumentationName names the HTTP meter and tracer
	HTTPInstrumentationName = "github.com/stacklok/feedrelay/http"

	unknownRoute = "unknown_route"
)

// HTTPMiddleware returns chi middleware that traces each request and records
// its duration. Nil providers disable the corresponding signal.
func HTTPMiddleware(tp trace.TracerProvider, mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	var (
		tracer   trace.Tracer
		duration metric.Float64Histogram
	)
	if tp != nil {
		tracer = tp.Tracer(HTTPInstrumentationName)
	}
	if mp != nil {
		var err error
		duration, err = mp.Meter(HTTPInstrumentationName).Float64Histogram(
			"feedrelay_http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP duration histogram: %w", err)
		}
	}

	return func(next http.Handler) http.Handler {
		if tracer == nil && duration == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var span trace.Span
			if tracer != nil {
				ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))
				ctx, span = tracer.Start(ctx, r.Method+" "+r.URL.Path,
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						semconv.HTTPRequestMethodKey.String(r.Method),
						semconv.URLPath(r.URL.Path),
					),
				)
				defer span.End()
			}

			next.ServeHTTP(ww, r.WithContext(ctx))

			// chi fills the route pattern during routing, so read it afterwards
			route := routePattern(r)
			status := ww.Status()

			if span != nil {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(
					semconv.HTTPRouteKey.String(route),
					semconv.HTTPResponseStatusCode(status),
				)
				if status >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, http.StatusText(status))
				}
			}
			if duration != nil {
				duration.Record(r.Context(), time.Since(start).Seconds(), metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
					attribute.String("status_code", strconv.Itoa(status)),
				))
			}
		})
	}, nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}
