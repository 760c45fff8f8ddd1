// Package catalog wraps the backend's product, category and batch endpoints.
// Every call is expected to go through an authorized client.
package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/octabyte/pharmacy-session/models"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unauthorized reports a 401. By the time the caller sees it the session has
// already been ended by the authorizer.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

type service struct {
	client   *resty.Client
	validate *validator.Validate
}

func newService(client *resty.Client) service {
	return service{client: client, validate: validator.New()}
}

func (s service) execute(ctx context.Context, req *resty.Request, method, path string) error {
	var errBody models.APIErrorBody
	resp, err := req.SetContext(ctx).SetError(&errBody).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Detail:     errBody.Detail,
		}
	}
	return nil
}

func (s service) check(ctx context.Context, what string, v interface{}) error {
	if err := s.validate.StructCtx(ctx, v); err != nil {
		return fmt.Errorf("invalid %s: %w", what, err)
	}
	return nil
}
