package auth

import (
	"github.com/brizzai/oauth-login/internal/auth/constants"
	"github.com/brizzai/oauth-login/internal/config"
)

// AuthorizationRedirector builds the URL that sends the browser to the provider.
type AuthorizationRedirector struct {
	cfg *config.ProviderConfig
}

func NewAuthorizationRedirector(cfg *config.ProviderConfig) *AuthorizationRedirector {
	return &AuthorizationRedirector{cfg: cfg}
}

// BuildAuthorizationURL concatenates the configured values as is. Values are
// not escaped, so a redirect URI with reserved characters must be configured
// already percent-encoded.
func (r *AuthorizationRedirector) BuildAuthorizationURL() string {
	return r.cfg.AuthURL +
		"?response_type=" + constants.ResponseTypeCode +
		"&client_id=" + r.cfg.ClientID +
		"&redirect_uri=" + r.cfg.RedirectURI
}
