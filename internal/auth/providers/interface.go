package providers

import (
	"context"

	"github.com/brizzai/oauth-login/internal/auth/models"
)

// Provider defines the two upstream calls of the login flow
type Provider interface {
	// Name is the path segment the provider is mounted under, e.g. "kakao"
	Name() string

	// ExchangeCode trades an authorization code for an access token. It is
	// attempted exactly once.
	ExchangeCode(ctx context.Context, code string) (*models.TokenPair, error)

	// FetchProfile reads the user's profile using the access token
	FetchProfile(ctx context.Context, accessToken string) (*models.ProviderProfile, error)
}
