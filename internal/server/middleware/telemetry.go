package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"tenantadmin/internal/server/httpx"
)

// Telemetry starts a span per request and records a request counter and a
// duration histogram. skipPaths is the set of paths to not instrument
// (e.g. /healthz, which probes hit every few seconds).
func Telemetry(tracer trace.Tracer, meter metric.Meter, skipPaths map[string]bool) func(http.Handler) http.Handler {
	counter, _ := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests handled"))
	duration, _ := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			ctx, span := tracer.Start(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			defer span.End()

			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", status),
			)
			counter.Add(ctx, 1, attrs)
			duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.Int("http.status_code", status),
				attribute.String("client.address", httpx.ClientIP(r)),
			)
		})
	}
}
