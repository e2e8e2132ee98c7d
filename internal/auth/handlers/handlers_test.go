package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/middleware"
	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticURL string

func (s staticURL) BuildAuthorizationURL() string { return string(s) }

type fakeExchanger struct {
	creds *models.SessionCredentials
	err   error
	got   models.CallbackQuery
	calls int
}

func (f *fakeExchanger) HandleCallback(_ context.Context, q models.CallbackQuery) (*models.SessionCredentials, error) {
	f.calls++
	f.got = q
	return f.creds, f.err
}

type fakeUsers map[string]*models.LocalUser

func (f fakeUsers) FindByID(_ context.Context, id string) (*models.LocalUser, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

// testError mirrors the shape of the pipeline errors
type testError struct {
	status      int
	code        string
	description string
}

func (e *testError) Error() string       { return e.code }
func (e *testError) HTTPStatus() int     { return e.status }
func (e *testError) ErrorCode() string   { return e.code }
func (e *testError) Description() string { return e.description }

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/{provider}", h.HandleLogin)
	mux.HandleFunc("GET /oauth/{provider}/redirect", h.HandleCallback)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	return mux
}

func newTestHandler(ex *fakeExchanger) *Handler {
	return NewHandler("kakao", staticURL("https://p/auth?response_type=code&client_id=cid&redirect_uri=https://app/cb"), ex, fakeUsers{}, CookieSettings{
		AccessTTL:         time.Hour,
		RefreshTTL:        14 * 24 * time.Hour,
		PostLoginRedirect: "/welcome",
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleLogin(t *testing.T) {
	mux := newTestMux(newTestHandler(&fakeExchanger{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/kakao", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://p/auth?response_type=code&client_id=cid&redirect_uri=https://app/cb", rec.Header().Get("Location"))
}

func TestUnknownProvider(t *testing.T) {
	ex := &fakeExchanger{}
	mux := newTestMux(newTestHandler(ex))

	for _, path := range []string{"/oauth/google", "/oauth/google/redirect?code=abc"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "not_found", decodeError(t, rec)["error"])
	}
	assert.Zero(t, ex.calls)
}

func TestHandleCallback_Success(t *testing.T) {
	ex := &fakeExchanger{creds: &models.SessionCredentials{AccessToken: "acc", RefreshToken: "ref"}}
	mux := newTestMux(newTestHandler(ex))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/kakao/redirect?code=abc", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
	assert.Equal(t, models.CallbackQuery{Code: "abc"}, ex.got)

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "access_token")
	require.Contains(t, cookies, "refresh_token")

	access := cookies["access_token"]
	assert.Equal(t, "acc", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 3600, access.MaxAge)

	refresh := cookies["refresh_token"]
	assert.Equal(t, "ref", refresh.Value)
	assert.Equal(t, 14*24*3600, refresh.MaxAge)
}

func TestHandleCallback_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantCode   string
		wantDesc   string
		wantQuery  models.CallbackQuery
	}{
		{
			name:       "provider denied",
			query:      "error=access_denied&error_description=User%20denied",
			err:        &testError{status: http.StatusForbidden, code: "provider_denied", description: "User denied"},
			wantStatus: http.StatusForbidden,
			wantCode:   "provider_denied",
			wantDesc:   "User denied",
			wantQuery:  models.CallbackQuery{Error: "access_denied", ErrorDescription: "User denied"},
		},
		{
			name:       "upstream timeout",
			query:      "code=abc",
			err:        &testError{status: http.StatusGatewayTimeout, code: "upstream_timeout", description: "slow"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "upstream_timeout",
			wantDesc:   "slow",
			wantQuery:  models.CallbackQuery{Code: "abc"},
		},
		{
			name:       "unclassified error",
			query:      "code=abc",
			err:        errors.New("internal detail"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "server_error",
			wantDesc:   "Internal server error",
			wantQuery:  models.CallbackQuery{Code: "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExchanger{err: tt.err}
			mux := newTestMux(newTestHandler(ex))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/kakao/redirect?"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			assert.Equal(t, tt.wantQuery, ex.got)

			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantDesc, body["error_description"])
		})
	}
}

func TestHandleMe(t *testing.T) {
	user := &models.LocalUser{ID: "u1", Email: "a@b.com", Username: "Al", PasswordPlaceholder: "$2a$secret"}
	h := NewHandler("kakao", staticURL(""), &fakeExchanger{}, fakeUsers{"u1": user}, CookieSettings{})

	withInfo := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		ctx := context.WithValue(req.Context(), middleware.AuthContextKey, &middleware.AuthInfo{UserID: id})
		return req.WithContext(ctx)
	}

	t.Run("known user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleMe(rec, withInfo("u1"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "$2a$secret")

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "u1", got["id"])
		assert.Equal(t, "a@b.com", got["email"])
		assert.Equal(t, "Al", got["username"])
	})

	t.Run("deleted user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleMe(rec, withInfo("gone"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	mux := newTestMux(newTestHandler(&fakeExchanger{}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
