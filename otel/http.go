package otel

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/octabyte/pharmacy-session"

// StartClientSpan opens a client span for an outbound request. The returned
// finish function must be called once the response or transport error is known.
func StartClientSpan(ctx context.Context, req *http.Request, tokenPresent bool) (context.Context, func(statusCode int, err error)) {
	tracer := otel.Tracer(TracerName)
	spanName := fmt.Sprintf("HTTP %s", req.Method)
	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL.Redacted()),
		attribute.Bool("session.token_present", tokenPresent),
	)

	return ctx, func(statusCode int, err error) {
		defer span.End()

		if statusCode > 0 {
			span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(statusCode))
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case statusCode >= 400:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

// MarkForcedLogout annotates the span in ctx when a 401 ended the session.
func MarkForcedLogout(ctx context.Context) {
	trace.SpanFromContext(ctx).AddEvent("session.forced_logout")
}
