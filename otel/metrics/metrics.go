package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	LoginModeDemo         = "demo"
	LoginModeDemoFallback = "demo_fallback"
	LoginModeBackend      = "backend"

	LogoutReasonUser         = "user"
	LogoutReasonUnauthorized = "unauthorized"
)

var (
	meter metric.Meter

	loginsTotal           metric.Int64Counter
	logoutsTotal          metric.Int64Counter
	clientRequestsTotal   metric.Int64Counter
	clientRequestDuration metric.Float64Histogram
)

// Init creates the session instruments on the global meter provider. Record
// functions are no-ops until Init succeeds.
func Init(serviceName string) error {
	meter = otel.Meter(serviceName)

	var err error

	loginsTotal, err = meter.Int64Counter(
		"session_logins_total",
		metric.WithDescription("Login attempts by mode and outcome"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session_logins_total counter: %w", err)
	}

	logoutsTotal, err = meter.Int64Counter(
		"session_logouts_total",
		metric.WithDescription("Session terminations by reason"),
		metric.WithUnit("{logout}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session_logouts_total counter: %w", err)
	}

	clientRequestsTotal, err = meter.Int64Counter(
		"http_client_requests_total",
		metric.WithDescription("Outbound requests made through the authorizer"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_client_requests_total counter: %w", err)
	}

	clientRequestDuration, err = meter.Float64Histogram(
		"http_client_request_duration_seconds",
		metric.WithDescription("Outbound request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_client_request_duration_seconds histogram: %w", err)
	}

	return nil
}

func RecordLogin(ctx context.Context, mode string, success bool) {
	if loginsTotal == nil {
		return
	}
	loginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", success),
	))
}

func RecordLogout(ctx context.Context, reason string) {
	if logoutsTotal == nil {
		return
	}
	logoutsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordClientRequest records one outbound request. statusCode is 0 for
// transport failures.
func RecordClientRequest(ctx context.Context, method string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", statusCode),
	)
	if clientRequestsTotal != nil {
		clientRequestsTotal.Add(ctx, 1, attrs)
	}
	if clientRequestDuration != nil {
		clientRequestDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

type logoutReasonKey struct{}

// WithLogoutReason tags ctx so the logout it reaches is counted under reason.
func WithLogoutReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, logoutReasonKey{}, reason)
}

// LogoutReason returns the reason set by WithLogoutReason, LogoutReasonUser otherwise.
func LogoutReason(ctx context.Context) string {
	if reason, ok := ctx.Value(logoutReasonKey{}).(string); ok && reason != "" {
		return reason
	}
	return LogoutReasonUser
}
