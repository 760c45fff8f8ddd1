// Package devserver is a small stand-in for the pharmacy backend. It issues
// expiring HS256 tokens and serves an in-memory catalog so the session core
// can be exercised end to end without the real API.
package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/octabyte/pharmacy-session/interfaces/http/echo/middleware"
	"github.com/octabyte/pharmacy-session/models"
	otelecho "github.com/octabyte/pharmacy-session/otel/echo"
)

const HealthPath = "/healthz"

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	// ServiceName names the server's spans.
	ServiceName string
	Now         func() time.Time
}

type Server struct {
	echo *echo.Echo
	cfg  Config
	data *fixtures
}

func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pharmacy-devserver"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.JSONSerializer = jsonSerializer{}
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler

	s := &Server{echo: e, cfg: cfg, data: newFixtures()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) routes() {
	e := s.echo
	e.Use(
		middleware.SetTokenInContext(),
		otelecho.Middleware(s.cfg.ServiceName, func(c echo.Context) bool { return c.Path() == HealthPath }),
	)

	e.GET(HealthPath, func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/auth/login", s.login)

	auth := middleware.SetSessionFromJWTToken(s.cfg.Secret, s.cfg.Now)
	e.GET("/auth/me", s.me, auth)

	e.GET("/categories/all", s.listCategories, auth)
	e.GET("/categories/:id", s.getCategory, auth)

	e.GET("/products/all", s.listProducts, auth)
	e.POST("/products/create", s.createProduct, auth)
	e.PUT("/products/update", s.updateProduct, auth)
	e.DELETE("/products/delete/:id", s.deleteProduct, auth)

	e.GET("/batches/all", s.listBatches, auth)
	e.POST("/batches/create", s.createBatch, auth)
	e.PUT("/batches/update/", s.updateBatch, auth)
	e.DELETE("/batches/delete/:id", s.deleteBatch, auth)
}

// errorHandler answers every error with the backend's {"detail": ...} body.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		detail = fmt.Sprint(he.Message)
	} else {
		c.Logger().Error(err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, models.APIErrorBody{Detail: detail})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	return nil
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body").SetInternal(err)
	}
	return nil
}
