package session

import (
	"context"
	"testing"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, secret string) *Issuer {
	t.Helper()
	iss, err := NewIssuer(&config.SessionConfig{
		Secret:     secret,
		Issuer:     "oauth-login",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return iss
}

var testUser = &models.LocalUser{ID: "u1", Email: "a@b.com"}

func TestMintAndVerify(t *testing.T) {
	iss := newTestIssuer(t, "secret")

	creds, err := iss.Mint(context.Background(), testUser)
	require.NoError(t, err)
	require.NotEmpty(t, creds.AccessToken)
	require.NotEmpty(t, creds.RefreshToken)
	assert.NotEqual(t, creds.AccessToken, creds.RefreshToken)

	claims, err := iss.Verify(creds.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	claims, err = iss.Verify(creds.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestMint_FreshEveryLogin(t *testing.T) {
	iss := newTestIssuer(t, "secret")

	first, err := iss.Mint(context.Background(), testUser)
	require.NoError(t, err)
	second, err := iss.Mint(context.Background(), testUser)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestVerify_Rejects(t *testing.T) {
	iss := newTestIssuer(t, "secret")
	creds, err := iss.Mint(context.Background(), testUser)
	require.NoError(t, err)

	expired := newTestIssuer(t, "secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Mint(context.Background(), testUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  TokenType
		iss   *Issuer
	}{
		{name: "empty", token: "", want: TokenTypeAccess, iss: iss},
		{name: "garbage", token: "not.a.jwt", want: TokenTypeAccess, iss: iss},
		{name: "refresh used as access", token: creds.RefreshToken, want: TokenTypeAccess, iss: iss},
		{name: "other secret", token: creds.AccessToken, want: TokenTypeAccess, iss: newTestIssuer(t, "other")},
		{name: "expired", token: old.AccessToken, want: TokenTypeAccess, iss: iss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.iss.Verify(tt.token, tt.want)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewIssuer(t *testing.T) {
	_, err := NewIssuer(&config.SessionConfig{})
	assert.Error(t, err)

	iss, err := NewIssuer(&config.SessionConfig{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAccessTTL, iss.AccessTTL())
	assert.Equal(t, config.DefaultRefreshTTL, iss.RefreshTTL())
}

func TestMint_RequiresUser(t *testing.T) {
	iss := newTestIssuer(t, "secret")
	_, err := iss.Mint(context.Background(), &models.LocalUser{})
	assert.Error(t, err)
}
