package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/octabyte/pharmacy-session/interfaces/http/echo/devserver"
)

func TestParseCommand(t *testing.T) {
	cmd, rest, err := parseCommand([]string{"login", "-email", "a@b.co"})
	require.NoError(t, err)
	assert.Equal(t, commandLogin, cmd)
	assert.Equal(t, []string{"-email", "a@b.co"}, rest)

	_, _, err = parseCommand(nil)
	assert.ErrorIs(t, err, errUsage)

	_, _, err = parseCommand([]string{"reboot"})
	assert.ErrorIs(t, err, errUsage)
}

func setupEnv(t *testing.T, apiURL string) {
	t.Helper()
	original := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(original) })

	t.Setenv("PHARMACY_API_URL", apiURL)
	t.Setenv("SESSION_STORAGE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("DEMO_DELAY", "0s")
	t.Setenv("DEMO_BACKEND_FIRST", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestSessionLifecycleAgainstDevServer(t *testing.T) {
	dev := devserver.New(devserver.Config{Secret: []byte("cli-test-secret-0123456789abcdef"), TokenTTL: time.Hour})
	srv := httptest.NewServer(dev.Handler())
	defer srv.Close()
	setupEnv(t, srv.URL)

	out, err := exec(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "signed out\n", out)

	out, err = exec(t, "login", "-email", "ventas@farmaciamariarios.com", "-password", "wrong-one")
	assert.EqualError(t, err, "invalid email or password")
	assert.Empty(t, out)

	out, err = exec(t, "login", "-email", "ventas@farmaciamariarios.com", "-password", "ventas123", "-return", "/products")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /products")
	assert.Contains(t, out, "signed in as Lucia Rios (role 2)")

	// Each run is a fresh process reading the persisted session.
	out, err = exec(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in\nexpires ")

	out, err = exec(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Lucia Rios <ventas@farmaciamariarios.com> role 2\n", out)

	out, err = exec(t, "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Paracetamol")

	out, err = exec(t, "login", "-email", "ventas@farmaciamariarios.com", "-password", "ventas123")
	require.NoError(t, err)
	assert.Contains(t, out, "already signed in")

	out, err = exec(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /login")
	assert.Contains(t, out, "signed out")

	out, err = exec(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "no cached user\n", out)
}

func TestDemoLoginWithoutBackend(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	setupEnv(t, url)

	out, err := exec(t, "login", "-email", "admin@farmaciamariarios.com", "-password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as Admin Farmacia Maria Rios (role 1)")

	out, err = exec(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "demo session, no expiry")

	_, err = exec(t, "products")
	assert.Error(t, err)

	_, err = exec(t, "login", "-email", "other@farmaciamariarios.com", "-password", "secret99")
	require.NoError(t, err, "already signed in with the demo session")
}

func TestLoginFormErrors(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	out, err := exec(t, "login", "-email", "nope", "-password", "123")
	assert.Error(t, err)
	assert.Contains(t, out, "Email: failed email")
	assert.Contains(t, out, "Password: failed min")
}
