// Package session mints and verifies the signed tokens handed to clients
// after a successful login.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	Email     string
	Type      TokenType
	ID        string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Type  TokenType `json:"typ"`
}

// Issuer signs session tokens with HS256.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg *config.SessionConfig) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	accessTTL, refreshTTL := cfg.AccessTTL, cfg.RefreshTTL
	if accessTTL <= 0 {
		accessTTL = config.DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = config.DefaultRefreshTTL
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Mint returns a fresh access/refresh pair for user.
func (i *Issuer) Mint(ctx context.Context, user *models.LocalUser) (*models.SessionCredentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, errors.New("user is required")
	}

	access, err := i.sign(user, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(user, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &models.SessionCredentials{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(user *models.LocalUser, typ TokenType, ttl time.Duration) (string, error) {
	now := i.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
		Type:  typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and the expected token type.
// Every failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(token string, want TokenType) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Type != want || parsed.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    parsed.Subject,
		Email:     parsed.Email,
		Type:      parsed.Type,
		ID:        parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}

// Module provides the Issuer
var Module = fx.Module("session", fx.Provide(NewIssuer))
