package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
)

var loginPath = "/" + enums.AuthResource + "/login"

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, credentials models.Credentials) (*models.LoginResponse, error)
}

// BackendAuthenticator posts credentials to the pharmacy backend.
//
// The client must not be an authorized one: a 401 here means the credentials
// were rejected and must not end the current session.
type BackendAuthenticator struct {
	client *resty.Client
}

func NewBackendAuthenticator(client *resty.Client) *BackendAuthenticator {
	return &BackendAuthenticator{client: client}
}

func (b *BackendAuthenticator) Authenticate(ctx context.Context, credentials models.Credentials) (*models.LoginResponse, error) {
	var (
		result  models.LoginResponse
		errBody models.APIErrorBody
	)

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		SetResult(&result).
		SetError(&errBody).
		Post(loginPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, &LoginError{StatusCode: 0, Message: "backend unreachable", Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &LoginError{
			StatusCode: resp.StatusCode(),
			Message:    http.StatusText(resp.StatusCode()),
			Detail:     errBody.Detail,
		}
	}

	if result.AccessToken == "" {
		return nil, &LoginError{
			StatusCode: resp.StatusCode(),
			Message:    "response carries no access token",
		}
	}

	return &result, nil
}
