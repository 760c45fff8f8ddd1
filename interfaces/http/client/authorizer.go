package client

import (
	"context"
	"net/http"
	"time"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/navigation"
	"github.com/octabyte/pharmacy-session/otel"
	otellogger "github.com/octabyte/pharmacy-session/otel/logger"
	"github.com/octabyte/pharmacy-session/otel/metrics"
	"github.com/octabyte/pharmacy-session/utils/logger"
	"go.uber.org/zap"
)

const Authorization = "Authorization"

// Session is what the authorizer needs from the session store.
type Session interface {
	Token() string
	Logout(ctx context.Context)
}

// Authorizer is an http.RoundTripper that attaches the current bearer token
// to every request and ends the session when the backend answers 401.
type Authorizer struct {
	session   Session
	navigator navigation.Navigator
	next      http.RoundTripper
}

func NewAuthorizer(session Session, navigator navigation.Navigator, next http.RoundTripper) *Authorizer {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Authorizer{session: session, navigator: navigator, next: next}
}

// RoundTrip never modifies req. The token is read once, at send time, and set
// on a clone so caller headers are kept. A 401 response is still returned to
// the caller after the session has been cleared.
func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	token := a.session.Token()

	ctx, finish := otel.StartClientSpan(req.Context(), req, token != "")
	out := req.Clone(ctx)
	if token != "" {
		out.Header.Set(Authorization, "Bearer "+token)
	}

	start := time.Now()
	resp, err := a.next.RoundTrip(out)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	finish(status, err)
	metrics.RecordClientRequest(ctx, req.Method, status, time.Since(start))

	if err != nil {
		logger.LogError("connection error", otellogger.With(ctx,
			zap.String("url", req.URL.Redacted()),
			zap.String("method", req.Method),
			zap.Bool("has_token", token != ""),
			zap.Error(err),
		)...)
		return resp, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.LogWarn("unauthorized response, ending session", otellogger.With(ctx,
			zap.String("url", req.URL.Redacted()),
			zap.String("method", req.Method),
		)...)
		otel.MarkForcedLogout(ctx)

		// The caller may cancel as soon as it sees the 401; the logout must
		// still complete.
		detached := metrics.WithLogoutReason(context.WithoutCancel(ctx), metrics.LogoutReasonUnauthorized)
		a.session.Logout(detached)
		a.navigator.Navigate(detached, enums.RouteLogin)
	}

	return resp, nil
}
