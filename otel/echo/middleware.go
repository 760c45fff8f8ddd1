package echo

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/octabyte/pharmacy-session/interfaces/http/echo/middleware"
)

// Middleware instruments requests with otelecho and adds the route, status
// and whether a bearer token was presented. Requests for which skipper
// returns true are not traced.
func Middleware(serviceName string, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	base := otelecho.Middleware(serviceName)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		traced := base(func(c echo.Context) error {
			err := next(c)
			annotate(c, err)
			return err
		})

		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			return traced(c)
		}
	}
}

func annotate(c echo.Context, err error) {
	span := trace.SpanFromContext(c.Request().Context())
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(
		attribute.String("http.route", c.Path()),
		attribute.Bool("session.token_present", middleware.TokenFromContext(c) != ""),
	)
	if err != nil {
		span.SetAttributes(attribute.String("error.message", err.Error()))
	}
}
