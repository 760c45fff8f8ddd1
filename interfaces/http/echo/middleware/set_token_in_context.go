package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SetTokenInContext stores the bearer token under TokenKey. The Authorization
// header wins over a cookie of the same name. The stored value has the
// "Bearer " prefix removed and is "" when none was sent.
func SetTokenInContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(Authorization)

			if token == "" {
				cookie, err := c.Cookie(Authorization)
				if err == nil {
					token = cookie.Value
				}
			}

			c.Set(TokenKey, bearer(token))
			return next(c)
		}
	}
}

func bearer(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len(BearerPrefix) && strings.EqualFold(value[:len(BearerPrefix)], BearerPrefix) {
		return strings.TrimSpace(value[len(BearerPrefix):])
	}
	return value
}

// TokenFromContext returns the token stored by SetTokenInContext.
func TokenFromContext(c echo.Context) string {
	token, _ := c.Get(TokenKey).(string)
	return token
}
