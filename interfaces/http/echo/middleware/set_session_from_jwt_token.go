package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/tidwall/gjson"

	"github.com/octabyte/pharmacy-session/models"
)

// SetSessionFromJWTToken verifies the token stored by SetTokenInContext as an
// HS256 JWT signed with secret and carrying exp. The "user" claim is placed
// in the request context and under UserKey. Missing, forged or expired tokens
// are answered with 401.
func SetSessionFromJWTToken(secret []byte, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromContext(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, DetailUnauthorized)
			}

			if _, err := parser.Parse(raw, keyFunc); err != nil {
				log.Debugf("rejecting token: %v", err)
				return echo.NewHTTPError(http.StatusUnauthorized, DetailUnauthorized)
			}

			// Signature checked above; the payload segment is now trusted.
			parts := strings.Split(raw, ".")
			payload, err := base64.RawURLEncoding.DecodeString(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, DetailUnauthorized)
			}

			userString := gjson.GetBytes(payload, "user").Raw
			var user models.User
			if err := json.Unmarshal([]byte(userString), &user); err != nil || user.ID == 0 {
				log.Errorf("token without usable user claim: %v", err)
				return echo.NewHTTPError(http.StatusUnauthorized, DetailUnauthorized)
			}

			newContext := context.WithValue(c.Request().Context(), jwtSessionKey, user)
			c.SetRequest(c.Request().WithContext(newContext))
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// UserFromContext returns the user placed by SetSessionFromJWTToken.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(jwtSessionKey).(models.User)
	return user, ok
}
