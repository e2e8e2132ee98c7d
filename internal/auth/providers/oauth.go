package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuthProvider talks to a provider that speaks plain OAuth 2.0 plus a JSON profile endpoint
type OAuthProvider struct {
	name         string
	oauth2Config *oauth2.Config
	profileURL   string
	paths        config.ProfilePaths
	requester    *requester.HTTPRequester
}

type OAuthProviderParams struct {
	fx.In

	Config    *config.ProviderConfig
	Requester *requester.HTTPRequester
}

func NewOAuthProvider(params OAuthProviderParams) *OAuthProvider {
	cfg := params.Config
	return &OAuthProvider{
		name: cfg.Name,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// Fixed style, AutoDetect would retry with basic auth on failure
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		profileURL: cfg.ProfileURL,
		paths:      cfg.Profile,
		requester:  params.Requester,
	}
}

func (p *OAuthProvider) Name() string {
	return p.name
}

func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*models.TokenPair, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.requester.Client())

	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr):
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			// a 2xx carrying an OAuth "error" field has no token to offer
			if status >= 200 && status < 300 {
				return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
			}
			return nil, &StatusError{Op: OpToken, StatusCode: status, Body: retrieveErr.Body}
		case isTransportError(err):
			return nil, &TransportError{Op: OpToken, Err: err}
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	if token.AccessToken == "" {
		return nil, ErrMalformedToken
	}

	return &models.TokenPair{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.Expiry,
	}, nil
}

func (p *OAuthProvider) FetchProfile(ctx context.Context, accessToken string) (*models.ProviderProfile, error) {
	resp, err := p.requester.Get(ctx, p.profileURL, requester.BearerAuth{Token: accessToken})
	if err != nil {
		if isTransportError(err) {
			return nil, &TransportError{Op: OpProfile, Err: err}
		}
		return nil, fmt.Errorf("failed to request profile: %w", err)
	}
	if !resp.OK() {
		return nil, &StatusError{Op: OpProfile, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	profile, err := ExtractProfile(resp.Body, p.paths)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("profile fetched",
		zap.String("provider", p.name),
		zap.Bool("has_email", profile.Email != ""),
		zap.Bool("has_name", profile.DisplayName != ""),
	)
	return profile, nil
}

// Module provides the configured Provider
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewOAuthProvider,
			fx.As(new(Provider)),
		),
	),
)
