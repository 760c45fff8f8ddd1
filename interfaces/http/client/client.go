// Package client builds the resty clients used to talk to the pharmacy
// backend, and the request authorizer every authenticated call goes through.
package client

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/octabyte/pharmacy-session/navigation"
)

type Config struct {
	BaseURL string `validate:"required,url"`
	// Timeout of zero means no client-side timeout.
	Timeout   time.Duration `validate:"gte=0"`
	UserAgent string
}

// New returns a resty client for the backend using transport, or the default
// transport when nil. It does not attach credentials.
func New(cfg Config, transport http.RoundTripper) *resty.Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if transport != nil {
		c.SetTransport(transport)
	}
	return c
}

// NewAuthorized returns a client whose every request passes through an
// Authorizer bound to session.
func NewAuthorized(cfg Config, session Session, navigator navigation.Navigator, base http.RoundTripper) *resty.Client {
	return New(cfg, NewAuthorizer(session, navigator, base))
}
