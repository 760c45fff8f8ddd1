package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/navigation"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type fakeSession struct {
	mu      sync.Mutex
	token   string
	logouts int
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) Logout(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.logouts++
}

func (s *fakeSession) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type AuthorizerTestSuite struct {
	suite.Suite
	session  *fakeSession
	recorder *navigation.Recorder
	logs     *observer.ObservedLogs
	original *zap.Logger
}

func (s *AuthorizerTestSuite) SetupTest() {
	s.session = &fakeSession{token: "tok-123"}
	s.recorder = navigation.NewRecorder()

	s.original = zap.L()
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs
	zap.ReplaceGlobals(zap.New(core))
}

func (s *AuthorizerTestSuite) TearDownTest() {
	zap.ReplaceGlobals(s.original)
}

func (s *AuthorizerTestSuite) authorizer(next http.RoundTripper) *Authorizer {
	return NewAuthorizer(s.session, s.recorder, next)
}

func (s *AuthorizerTestSuite) TestAttachesBearerAndKeepsCallerHeaders() {
	var seen *http.Request
	a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return respond(http.StatusOK, `[]`), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://api.local/products/all", nil)
	req.Header.Set("X-Request-Source", "inventory-screen")
	req.Header.Add("Accept", "application/json")

	resp, err := a.RoundTrip(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	s.Require().NotNil(seen)
	s.Equal("Bearer tok-123", seen.Header.Get(Authorization))
	s.Equal("inventory-screen", seen.Header.Get("X-Request-Source"))
	s.Equal("application/json", seen.Header.Get("Accept"))

	s.Empty(req.Header.Get(Authorization), "caller request must not be mutated")
	s.Equal(0, s.session.Logouts())
	s.Empty(s.recorder.Events())
}

func (s *AuthorizerTestSuite) TestNoTokenSendsNoAuthorization() {
	s.session.token = ""

	var seen *http.Request
	a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return respond(http.StatusOK, `{}`), nil
	}))

	_, err := a.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.local/categories/all", nil))
	s.Require().NoError(err)
	_, present := seen.Header[Authorization]
	s.False(present)
}

func (s *AuthorizerTestSuite) TestUnauthorizedEndsSessionAndReturnsOriginalResponse() {
	a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`), nil
	}))

	resp, err := a.RoundTrip(httptest.NewRequest(http.MethodDelete, "http://api.local/products/delete/3", nil))
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.JSONEq(`{"detail":"Could not validate credentials"}`, string(body))

	s.Equal(1, s.session.Logouts())
	s.Empty(s.session.Token())
	s.Equal(enums.RouteLogin, s.recorder.Last())

	warns := s.logs.FilterLevelExact(zapcore.WarnLevel).All()
	s.Require().Len(warns, 1)
	s.Equal("unauthorized response, ending session", warns[0].Message)
}

func (s *AuthorizerTestSuite) TestLogoutSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())

	var logoutCtxErr error
	session := &ctxCheckingSession{fakeSession: s.session, onLogout: func(ctx context.Context) { logoutCtxErr = ctx.Err() }}
	a := NewAuthorizer(session, s.recorder, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		cancel()
		return respond(http.StatusUnauthorized, ``), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://api.local/batches/all", nil).WithContext(ctx)
	_, err := a.RoundTrip(req)
	s.Require().NoError(err)
	s.NoError(logoutCtxErr)
}

func (s *AuthorizerTestSuite) TestTransportErrorPassesThrough() {
	transportErr := errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
	a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, transportErr
	}))

	resp, err := a.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.local/products/all", nil))
	s.Nil(resp)
	s.ErrorIs(err, transportErr)

	s.Equal(0, s.session.Logouts())
	s.Equal("tok-123", s.session.Token())
	s.Empty(s.recorder.Events())

	errs := s.logs.FilterMessage("connection error").All()
	s.Require().Len(errs, 1)
	fields := errs[0].ContextMap()
	s.Equal("GET", fields["method"])
	s.Equal(true, fields["has_token"])
	s.NotContains(fields, "token")
}

func (s *AuthorizerTestSuite) TestOtherErrorStatusesDoNotEndSession() {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return respond(status, `{}`), nil
		}))
		resp, err := a.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.local/x", nil))
		s.Require().NoError(err)
		s.Equal(status, resp.StatusCode)
	}
	s.Equal(0, s.session.Logouts())
}

func (s *AuthorizerTestSuite) TestInFlightRequestKeepsTokenReadAtSendTime() {
	release := make(chan struct{})
	firstSent := make(chan struct{})
	var mu sync.Mutex
	seen := map[string]string{}

	a := s.authorizer(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get(Authorization)
		mu.Unlock()
		if r.URL.Path == "/slow" {
			close(firstSent)
			<-release
			return respond(http.StatusUnauthorized, ``), nil
		}
		return respond(http.StatusOK, `{}`), nil
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.local/slow", nil))
	}()

	<-firstSent
	s.session.Logout(context.Background())

	_, err := a.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.local/after-logout", nil))
	s.Require().NoError(err)

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	s.Equal("Bearer tok-123", seen["/slow"])
	s.Empty(seen["/after-logout"])
}

func TestAuthorizerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthorizerTestSuite))
}

type ctxCheckingSession struct {
	*fakeSession
	onLogout func(context.Context)
}

func (s *ctxCheckingSession) Logout(ctx context.Context) {
	s.onLogout(ctx)
	s.fakeSession.Logout(ctx)
}

func TestNewAuthorizedClientAgainstServer(t *testing.T) {
	var gotAuth, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(Authorization)
		gotCustom = r.Header.Get("X-Branch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	session := &fakeSession{token: "abc"}
	c := NewAuthorized(Config{BaseURL: srv.URL, UserAgent: "pharmacy-session/test"}, session, navigation.NewRecorder(), nil)

	var out struct {
		OK bool `json:"ok"`
	}
	resp, err := c.R().SetHeader("X-Branch", "centro").SetResult(&out).Get("/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "centro", gotCustom)
}

func TestNewDoesNotAttachCredentials(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[Authorization]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}, nil).R().Get("/x")
	require.NoError(t, err)
	assert.False(t, present)
}
