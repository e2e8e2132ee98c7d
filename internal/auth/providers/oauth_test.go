package providers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/auth/providers"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/requester"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, srv *httptest.Server, timeout time.Duration) *providers.OAuthProvider {
	t.Helper()
	cfg := &config.ProviderConfig{
		Name:         "kakao",
		AuthURL:      srv.URL + "/oauth/authorize",
		TokenURL:     srv.URL + "/oauth/token",
		ProfileURL:   srv.URL + "/v2/user/me",
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "https://app/cb",
		Timeout:      timeout,
		Profile: config.ProfilePaths{
			IDPath:    "id",
			EmailPath: "kakao_account.email",
			NamePath:  "properties.nickname",
		},
	}
	return providers.NewOAuthProvider(providers.OAuthProviderParams{
		Config:    cfg,
		Requester: requester.NewHTTPRequester(requester.HTTPRequesterParams{ProviderConfig: cfg}),
	})
}

func TestExchangeCode_SendsFormParams(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://app/cb", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		_, hasBasic := r.Header["Authorization"]
		assert.False(t, hasBasic)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	token, err := newProvider(t, srv, time.Second).ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExchangeCode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		check   func(t *testing.T, err error)
	}{
		{
			name: "upstream rejects the code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			},
			check: func(t *testing.T, err error) {
				var statusErr *providers.StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, providers.OpToken, statusErr.Op)
				assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
				assert.Contains(t, string(statusErr.Body), "invalid_grant")
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrMalformedToken)
			},
		},
		{
			name: "oauth error on success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrMalformedToken)
				var statusErr *providers.StatusError
				assert.False(t, errors.As(err, &statusErr))
			},
		},
		{
			name: "json served as text/plain",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrMalformedToken)
			},
		},
		{
			name: "unparsable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`not json`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrMalformedToken)
			},
		},
		{
			name:    "slow upstream",
			timeout: 50 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			},
			check: func(t *testing.T, err error) {
				var transportErr *providers.TransportError
				require.True(t, errors.As(err, &transportErr))
				assert.True(t, transportErr.Timeout())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			token, err := newProvider(t, srv, timeout).ExchangeCode(context.Background(), "c")
			require.Error(t, err)
			assert.Nil(t, token)
			tt.check(t, err)
			assert.Equal(t, int32(1), hits.Load(), "token exchange must not be retried")
		})
	}
}

func TestExchangeCode_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	p := newProvider(t, srv, time.Second)
	srv.Close()

	_, err := p.ExchangeCode(context.Background(), "c")
	var transportErr *providers.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.Timeout())
}

func TestFetchProfile(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    *models.ProviderProfile
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "full kakao profile",
			status: http.StatusOK,
			body:   `{"id":123,"kakao_account":{"email":"a@b.com"},"properties":{"nickname":"Al"}}`,
			want:   &models.ProviderProfile{ProviderUserID: "123", Email: "a@b.com", DisplayName: "Al"},
		},
		{
			name:   "no kakao_account",
			status: http.StatusOK,
			body:   `{"id":"9","properties":{"nickname":"Bo"}}`,
			want:   &models.ProviderProfile{ProviderUserID: "9", DisplayName: "Bo"},
		},
		{
			name:   "null and nested values are ignored",
			status: http.StatusOK,
			body:   `{"id":{"x":1},"kakao_account":{"email":null},"properties":null}`,
			want:   &models.ProviderProfile{},
		},
		{
			name:   "rejected token",
			status: http.StatusUnauthorized,
			body:   `{"msg":"no"}`,
			wantErr: func(t *testing.T, err error) {
				var statusErr *providers.StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, providers.OpProfile, statusErr.Op)
				assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
			},
		},
		{
			name:   "html body",
			status: http.StatusOK,
			body:   `<html></html>`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrInvalidProfile)
			},
		},
		{
			name:   "json array",
			status: http.StatusOK,
			body:   `[1,2]`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, providers.ErrInvalidProfile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v2/user/me", r.URL.Path)
				assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			profile, err := newProvider(t, srv, time.Second).FetchProfile(context.Background(), "at")
			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, profile); diff != "" {
				t.Errorf("profile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
