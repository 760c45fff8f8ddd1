// Package login drives the login screen: form validation, the login call and
// the redirect that follows it.
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/octabyte/pharmacy-session/models"
	"github.com/octabyte/pharmacy-session/navigation"
	"github.com/octabyte/pharmacy-session/session"
	"github.com/octabyte/pharmacy-session/utils/logger"
)

const (
	MessageInvalidCredentials = "invalid email or password"
	MessageConnection         = "connection error, check that the backend is running"
	MessageGeneric            = "could not sign in, please try again"
)

var ErrInvalidForm = errors.New("invalid login form")

type Form struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// FieldError names one failed form rule, e.g. {Field: "Password", Rule: "min"}.
type FieldError struct {
	Field string
	Rule  string
}

// Result is what the screen shows after a submit.
type Result struct {
	OK          bool
	Destination string
	Message     string
	FieldErrors []FieldError
	Err         error
}

// Sessions is the part of the session store the login screen needs.
type Sessions interface {
	Login(ctx context.Context, credentials models.Credentials) (*models.LoginResponse, error)
	IsAuthenticated() bool
}

type Controller struct {
	sessions  Sessions
	navigator navigation.Navigator
	validate  *validator.Validate
}

func NewController(sessions Sessions, navigator navigation.Navigator) *Controller {
	return &Controller{
		sessions:  sessions,
		navigator: navigator,
		validate:  validator.New(),
	}
}

// Open is called when the login screen is shown. An authenticated visitor is
// sent straight on to the return destination and Open reports true.
func (c *Controller) Open(ctx context.Context, returnURL string) bool {
	if !c.sessions.IsAuthenticated() {
		return false
	}
	c.navigator.Navigate(ctx, navigation.ReturnDestination(returnURL))
	return true
}

func (c *Controller) Submit(ctx context.Context, form Form, returnURL string) Result {
	if err := c.validate.StructCtx(ctx, form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Result{Message: MessageGeneric, Err: err}
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return Result{FieldErrors: fields, Err: ErrInvalidForm}
	}

	_, err := c.sessions.Login(ctx, models.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		logger.LogDebug("login submit failed", zap.Error(err))
		return Result{Message: Message(err), Err: err}
	}

	dest := navigation.ReturnDestination(returnURL)
	c.navigator.Navigate(ctx, dest)
	return Result{OK: true, Destination: dest}
}

// Message maps a login failure to the text shown to the user.
func Message(err error) string {
	le, ok := session.AsLoginError(err)
	if !ok {
		return MessageGeneric
	}
	switch {
	case le.StatusCode == http.StatusUnauthorized:
		return MessageInvalidCredentials
	case le.Unreachable():
		return MessageConnection
	case le.Detail != "":
		return le.Detail
	default:
		return MessageGeneric
	}
}
