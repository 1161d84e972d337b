package live

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracerName is used when the server config leaves TracerName
// empty. The tracer comes from the global provider; configure that in
// main before starting the server.
const defaultTracerName = "ddom/live"

// Tracing returns HTTP middleware that wraps each request in a span,
// recording method, path, and status. 5xx responses mark the span as
// an error.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "ddom.http "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				// Hijacked connections (the websocket upgrade) never
				// write a status through the wrapper.
				status = http.StatusSwitchingProtocols
			}
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// passAttributes builds the span attributes for one reconciliation
// pass.
func passAttributes(collection string, created, updated, removed, moved, skipped, ops int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ddom.collection", collection),
		attribute.Int("ddom.created", created),
		attribute.Int("ddom.updated", updated),
		attribute.Int("ddom.removed", removed),
		attribute.Int("ddom.moved", moved),
		attribute.Int("ddom.skipped", skipped),
		attribute.Int("ddom.host_ops", ops),
	}
}
