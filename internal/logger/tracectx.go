package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// FromCtx returns the default logger, tagged with trace_id and span_id when
// ctx carries a valid span.
func FromCtx(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return slog.Default()
	}
	return slog.Default().With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}
