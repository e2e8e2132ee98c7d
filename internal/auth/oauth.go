package auth

import (
	"net/http"

	"github.com/brizzai/oauth-login/internal/auth/handlers"
	"github.com/brizzai/oauth-login/internal/auth/middleware"
	"github.com/brizzai/oauth-login/internal/auth/session"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/store"
	"go.uber.org/fx"
)

// Service wires the login flow to HTTP
type Service struct {
	providerName string
	handler      *handlers.Handler
	verifier     middleware.TokenVerifier
}

type ServiceParams struct {
	fx.In

	ProviderConfig *config.ProviderConfig
	SessionConfig  *config.SessionConfig
	Redirector     *AuthorizationRedirector
	Exchanger      *CallbackExchanger
	Users          store.UserStore
	Issuer         *session.Issuer
}

// NewService creates a new login service
func NewService(params ServiceParams) *Service {
	handler := handlers.NewHandler(
		params.ProviderConfig.Name,
		params.Redirector,
		params.Exchanger,
		params.Users,
		handlers.CookieSettings{
			Domain:            params.SessionConfig.CookieDomain,
			AccessTTL:         params.Issuer.AccessTTL(),
			RefreshTTL:        params.Issuer.RefreshTTL(),
			PostLoginRedirect: params.SessionConfig.PostLoginRedirect,
		},
	)
	return &Service{
		providerName: params.ProviderConfig.Name,
		handler:      handler,
		verifier:     params.Issuer,
	}
}

// RegisterRoutes registers the login routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /oauth/{provider}", s.handler.HandleLogin)
	mux.HandleFunc("GET /oauth/{provider}/redirect", s.handler.HandleCallback)
	mux.Handle("GET /me", s.Authenticate()(http.HandlerFunc(s.handler.HandleMe)))
	mux.HandleFunc("GET /healthz", s.handler.HandleHealth)
}

// Authenticate returns the session authentication middleware
func (s *Service) Authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.verifier)
}

// ProviderName is the provider path segment served by this instance
func (s *Service) ProviderName() string {
	return s.providerName
}

// Module provides the login pipeline and its HTTP service
var Module = fx.Module("auth",
	fx.Provide(
		NewAuthorizationRedirector,
		NewCallbackExchanger,
		NewService,
		func(i *session.Issuer) CredentialIssuer { return i },
	),
)
