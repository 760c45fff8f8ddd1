// Package config loads process configuration from the environment and
// optional .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	dbredis "github.com/octabyte/pharmacy-session/db/redis"
	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/interfaces/http/client"
	"github.com/octabyte/pharmacy-session/otel"
	"github.com/octabyte/pharmacy-session/session"
	"github.com/octabyte/pharmacy-session/storage"
	"github.com/octabyte/pharmacy-session/utils/logger"
)

const (
	DefaultAppName       = "pharmacy-session"
	DefaultAPIURL        = "http://127.0.0.1:8000"
	DefaultRedisAddr     = "127.0.0.1:6379"
	DefaultRedisPrefix   = "pharmacy:session:"
	DefaultDevServerAddr = ":8000"
	DefaultTokenTTL      = time.Hour

	defaultDevSecret = "pharmacy-devserver-insecure-secret"
)

type Demo struct {
	Enabled      bool
	Email        string        `validate:"required,email"`
	Password     string        `validate:"required"`
	Delay        time.Duration `validate:"gte=0"`
	BackendFirst bool
}

type DevServer struct {
	Addr     string        `validate:"required"`
	Secret   string        `validate:"required,min=16"`
	TokenTTL time.Duration `validate:"gt=0"`
}

type Config struct {
	AppName     string `validate:"required"`
	Env         string
	LogLevel    string `validate:"omitempty,oneof=debug info warn error fatal panic"`
	LogEncoding string `validate:"omitempty,oneof=json console"`

	API       client.Config
	Demo      Demo
	Storage   storage.Config
	DevServer DevServer
	Telemetry otel.Config
}

// Load reads the given .env files, or ./.env when none are named, and then
// the environment. Variables already set in the environment win over files.
// A missing ./.env is not an error; a missing named file is.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	r := &reader{}
	cfg := &Config{
		AppName:     r.str("APP_NAME", DefaultAppName),
		Env:         r.str("ENV", "development"),
		LogLevel:    r.str("LOG_LEVEL", enums.LogLevelInfo),
		LogEncoding: r.str("LOG_ENCODING", enums.LogEncodingJSON),
		API: client.Config{
			BaseURL:   r.str("PHARMACY_API_URL", DefaultAPIURL),
			Timeout:   r.duration("REQUEST_TIMEOUT", 0),
			UserAgent: DefaultAppName,
		},
		Demo: Demo{
			Enabled:      r.boolean("DEMO_ENABLED", true),
			Email:        r.str("DEMO_EMAIL", session.DefaultDemoEmail),
			Password:     r.str("DEMO_PASSWORD", session.DefaultDemoPassword),
			Delay:        r.duration("DEMO_DELAY", session.DefaultDemoDelay),
			BackendFirst: r.boolean("DEMO_BACKEND_FIRST", false),
		},
		Storage: storage.Config{
			Driver:    r.str("SESSION_STORAGE", enums.StorageDriverFile),
			FilePath:  r.str("SESSION_FILE", defaultSessionFile()),
			KeyPrefix: r.str("REDIS_KEY_PREFIX", DefaultRedisPrefix),
			Redis: dbredis.Config{
				Addr:     r.str("REDIS_ADDR", DefaultRedisAddr),
				Password: r.str("REDIS_PASSWORD", ""),
				DB:       r.integer("REDIS_DB", 0),
			},
		},
		DevServer: DevServer{
			Addr:     r.str("DEVSERVER_ADDR", DefaultDevServerAddr),
			Secret:   r.str("DEVSERVER_SECRET", defaultDevSecret),
			TokenTTL: r.duration("DEVSERVER_TOKEN_TTL", DefaultTokenTTL),
		},
		Telemetry: otel.Config{
			Enabled:    r.boolean("OTEL_ENABLED", false),
			Endpoint:   r.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRate: r.float("OTEL_SAMPLE_RATE", 1),
		},
	}
	cfg.Telemetry.ServiceName = cfg.AppName
	cfg.Telemetry.Environment = cfg.Env
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == enums.StorageDriverRedis {
		if err := v.Struct(c.Storage.Redis); err != nil {
			return fmt.Errorf("invalid redis config: %w", err)
		}
	}
	return nil
}

func (c *Config) Logger() *logger.Config {
	return &logger.Config{
		Level:    c.LogLevel,
		Env:      c.Env,
		AppName:  c.AppName,
		Encoding: c.LogEncoding,
	}
}

// SessionOptions translates the demo settings into store options.
func (c *Config) SessionOptions() []session.Option {
	if !c.Demo.Enabled {
		return []session.Option{session.WithDemoAccount(nil)}
	}
	return []session.Option{
		session.WithDemoAccount(&session.DemoAccount{
			Email:    c.Demo.Email,
			Password: c.Demo.Password,
			Delay:    c.Demo.Delay,
		}),
		session.WithBackendFirst(c.Demo.BackendFirst),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".pharmacy-session.json")
	}
	return filepath.Join(dir, DefaultAppName, "session.json")
}

// reader collects parse errors so every bad variable is reported at once.
type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
