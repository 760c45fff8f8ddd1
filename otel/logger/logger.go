package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceFields returns trace_id and span_id fields for the span in ctx, or
// nothing when ctx carries no valid span.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// With appends the trace fields of ctx to fields.
func With(ctx context.Context, fields ...zap.Field) []zap.Field {
	return append(fields, TraceFields(ctx)...)
}
