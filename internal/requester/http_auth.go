package requester

import (
	"errors"
	"net/http"

	"github.com/brizzai/oauth-login/internal/auth/constants"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// ErrEmptyToken is returned when a bearer token is applied without a value.
var ErrEmptyToken = errors.New("bearer token is empty")

// NoAuth leaves the request untouched
type NoAuth struct{}

func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// BearerAuth sets "Authorization: Bearer <token>" on the request
type BearerAuth struct {
	Token string
}

// ApplyAuth adds the bearer token to the request
func (a BearerAuth) ApplyAuth(req *http.Request) error {
	if a.Token == "" {
		return ErrEmptyToken
	}
	req.Header.Set(constants.AuthHeaderName, constants.AuthHeaderPrefix+a.Token)
	return nil
}
