// Package session holds the authenticated identity of the admin front-end:
// the access token and the cached user, persisted across restarts.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
	"github.com/octabyte/pharmacy-session/navigation"
	otellogger "github.com/octabyte/pharmacy-session/otel/logger"
	"github.com/octabyte/pharmacy-session/otel/metrics"
	"github.com/octabyte/pharmacy-session/storage"
	"github.com/octabyte/pharmacy-session/token"
	"github.com/octabyte/pharmacy-session/utils"
	"github.com/octabyte/pharmacy-session/utils/logger"
)

const (
	DefaultDemoEmail    = "admin@farmaciamariarios.com"
	DefaultDemoPassword = "admin123"
	DefaultDemoDelay    = 500 * time.Millisecond

	demoTokenType = "bearer"
)

// DemoAccount is the credential pair that logs in without a backend.
type DemoAccount struct {
	Email    string
	Password string
	// Delay simulates the backend round trip on the direct demo path.
	Delay time.Duration
}

func (d *DemoAccount) matches(c models.Credentials) bool {
	return d != nil && c.Email == d.Email && c.Password == d.Password
}

func (d *DemoAccount) user() *models.User {
	return &models.User{
		ID:        1,
		Email:     d.Email,
		FirstName: "Admin",
		LastName:  "Farmacia Maria Rios",
		RoleID:    enums.RoleAdmin,
	}
}

type Option func(*Store)

// WithDemoAccount replaces the built-in demo account. A nil account disables
// demo logins entirely.
func WithDemoAccount(account *DemoAccount) Option {
	return func(s *Store) {
		s.demo = account
	}
}

// WithBackendFirst sends the demo pair to the backend too, keeping the demo
// session only as a fallback when the backend is unreachable or has no login
// route.
func WithBackendFirst(enabled bool) Option {
	return func(s *Store) {
		s.backendFirst = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is safe for concurrent use. Reads never block on storage.
type Store struct {
	mu sync.RWMutex

	token string
	user  *models.User
	// generation is bumped by every logout; a login only installs its
	// result if the generation it started under is still current.
	generation uint64

	storage      storage.Storage
	backend      Authenticator
	navigator    navigation.Navigator
	demo         *DemoAccount
	backendFirst bool
	now          func() time.Time
}

// NewStore builds a store and restores the session persisted in st. A
// corrupt user record is discarded; the token next to it is kept.
func NewStore(ctx context.Context, st storage.Storage, backend Authenticator, navigator navigation.Navigator, opts ...Option) *Store {
	if navigator == nil {
		navigator = navigation.LogNavigator{}
	}

	s := &Store{
		storage:   st,
		backend:   backend,
		navigator: navigator,
		demo: &DemoAccount{
			Email:    DefaultDemoEmail,
			Password: DefaultDemoPassword,
			Delay:    DefaultDemoDelay,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	raw, err := s.storage.Get(ctx, enums.StorageKeyToken)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return
	case err != nil:
		logger.LogError("failed to read persisted session, starting signed out", zap.Error(err))
		return
	}
	s.token = raw

	rawUser, err := s.storage.Get(ctx, enums.StorageKeyUser)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return
	case err != nil:
		logger.LogError("failed to read persisted user", zap.Error(err))
		return
	}

	var user *models.User
	if err := utils.FromJSONString(rawUser, &user); err != nil {
		logger.LogError("discarding corrupt user record", zap.Error(err))
		if rmErr := s.storage.Remove(ctx, enums.StorageKeyUser); rmErr != nil {
			logger.LogError("failed to remove corrupt user record", zap.Error(rmErr))
		}
		return
	}
	s.user = user

	logger.LogDebug("session restored", zap.Bool("has_user", user != nil))
}

// Login authenticates credentials and installs the resulting session. It
// returns only after both storage and memory reflect the new session. On
// failure the current session is left as it was.
func (s *Store) Login(ctx context.Context, credentials models.Credentials) (*models.LoginResponse, error) {
	gen := s.currentGeneration()

	if s.demo.matches(credentials) && !s.backendFirst {
		if err := sleep(ctx, s.demo.Delay); err != nil {
			metrics.RecordLogin(ctx, metrics.LoginModeDemo, false)
			return nil, err
		}
		return s.finishLogin(ctx, gen, s.demoResponse(), metrics.LoginModeDemo)
	}

	resp, err := s.authenticate(ctx, credentials)
	if err != nil {
		if le, ok := AsLoginError(err); ok && (le.Unreachable() || le.NotFound()) && s.demo.matches(credentials) {
			logger.LogInfo("backend unavailable, falling back to demo session",
				otellogger.With(ctx, zap.Int("status", le.StatusCode))...)
			return s.finishLogin(ctx, gen, s.demoResponse(), metrics.LoginModeDemoFallback)
		}

		metrics.RecordLogin(ctx, metrics.LoginModeBackend, false)
		logger.LogWarn("login failed", otellogger.With(ctx, zap.Error(err))...)
		return nil, err
	}

	return s.finishLogin(ctx, gen, resp, metrics.LoginModeBackend)
}

func (s *Store) authenticate(ctx context.Context, credentials models.Credentials) (*models.LoginResponse, error) {
	if s.backend == nil {
		return nil, &LoginError{StatusCode: 0, Message: "no backend configured"}
	}
	return s.backend.Authenticate(ctx, credentials)
}

func (s *Store) finishLogin(ctx context.Context, gen uint64, resp *models.LoginResponse, mode string) (*models.LoginResponse, error) {
	if err := s.install(ctx, gen, resp); err != nil {
		metrics.RecordLogin(ctx, mode, false)
		logger.LogWarn("login discarded", otellogger.With(ctx, zap.String("mode", mode), zap.Error(err))...)
		return nil, err
	}

	metrics.RecordLogin(ctx, mode, true)
	fields := []zap.Field{zap.String("mode", mode)}
	if resp.User != nil {
		fields = append(fields, zap.Uint64("user_id", resp.User.ID), zap.Int("role_id", int(resp.User.RoleID)))
	}
	logger.LogInfo("login succeeded", otellogger.With(ctx, fields...)...)
	return resp, nil
}

func (s *Store) demoResponse() *models.LoginResponse {
	return &models.LoginResponse{
		AccessToken: token.NewDemo(s.now()),
		TokenType:   demoTokenType,
		User:        s.demo.user(),
	}
}

func (s *Store) install(ctx context.Context, gen uint64, resp *models.LoginResponse) error {
	// Persistence completes even if the caller gives up after the backend
	// already answered.
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return ErrLoginSuperseded
	}

	if err := s.storage.Set(ctx, enums.StorageKeyToken, resp.AccessToken); err != nil {
		logger.LogError("failed to persist access token", zap.Error(err))
	}

	var user *models.User
	if resp.User != nil {
		u := *resp.User
		user = &u
		if encoded, err := utils.ToJSONString(user); err != nil {
			logger.LogError("failed to encode user record", zap.Error(err))
		} else if err := s.storage.Set(ctx, enums.StorageKeyUser, encoded); err != nil {
			logger.LogError("failed to persist user record", zap.Error(err))
		}
	} else if err := s.storage.Remove(ctx, enums.StorageKeyUser); err != nil {
		logger.LogError("failed to remove stale user record", zap.Error(err))
	}

	s.token = resp.AccessToken
	s.user = user
	return nil
}

// Logout clears the session from memory and storage and navigates to the
// login route. It is idempotent and never fails; storage errors are logged.
func (s *Store) Logout(ctx context.Context) {
	// A cancelled caller must not leave the session behind in storage.
	storeCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	s.generation++
	hadToken := s.token != ""
	s.token = ""
	s.user = nil

	if err := s.storage.Remove(storeCtx, enums.StorageKeyToken); err != nil {
		logger.LogError("failed to remove access token", zap.Error(err))
	}
	if err := s.storage.Remove(storeCtx, enums.StorageKeyUser); err != nil {
		logger.LogError("failed to remove user record", zap.Error(err))
	}
	s.mu.Unlock()

	reason := metrics.LogoutReason(ctx)
	metrics.RecordLogout(ctx, reason)
	logger.LogInfo("session ended", otellogger.With(ctx,
		zap.String("reason", reason),
		zap.Bool("had_token", hadToken),
	)...)

	s.navigator.Navigate(ctx, enums.RouteLogin)
}

// IsAuthenticated reports whether a usable token is held. Demo tokens never
// expire; other tokens are valid strictly before their exp claim.
func (s *Store) IsAuthenticated() bool {
	raw := s.Token()
	if raw == "" {
		return false
	}
	if token.IsDemo(raw) {
		return true
	}

	payload, err := token.Decode(raw)
	if err != nil {
		logger.LogDebug("held token is not decodable", zap.Error(err))
		return false
	}
	return payload.Valid(s.now())
}

// Token returns the raw access token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the cached user, or nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) HasRole(role enums.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.RoleID == role
}

// TokenPayload decodes the held token. It returns nil when signed out, for
// demo tokens and for tokens that do not decode.
func (s *Store) TokenPayload() *token.Payload {
	raw := s.Token()
	if raw == "" || token.IsDemo(raw) {
		return nil
	}
	payload, err := token.Decode(raw)
	if err != nil {
		return nil
	}
	return payload
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
