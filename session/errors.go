package session

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrLoginSuperseded is returned when a logout happened while the login was
// in flight. Nothing from the login is stored.
var ErrLoginSuperseded = errors.New("login superseded by logout")

// LoginError is a failed login attempt as reported by the backend.
// StatusCode is 0 when the backend could not be reached.
type LoginError struct {
	StatusCode int
	Message    string
	// Detail is the backend's own explanation, when it sent one.
	Detail string
	Err    error
}

func (e *LoginError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("login failed (status %d): %s: %v", e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("login failed (status %d): %s", e.StatusCode, msg)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func (e *LoginError) Unreachable() bool {
	return e.StatusCode == 0
}

func (e *LoginError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *LoginError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// AsLoginError unwraps err into a *LoginError.
func AsLoginError(err error) (*LoginError, bool) {
	var le *LoginError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
