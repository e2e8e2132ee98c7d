package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/constants"
	"github.com/brizzai/oauth-login/internal/auth/middleware"
	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/brizzai/oauth-login/internal/utils"
	"go.uber.org/zap"
)

// AuthorizationURLBuilder produces the provider authorization URL
type AuthorizationURLBuilder interface {
	BuildAuthorizationURL() string
}

// CallbackExchanger runs the login pipeline for a callback
type CallbackExchanger interface {
	HandleCallback(ctx context.Context, query models.CallbackQuery) (*models.SessionCredentials, error)
}

// UserFinder loads users for the /me endpoint
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.LocalUser, error)
}

// publicError is implemented by pipeline errors that know their response shape
type publicError interface {
	error
	HTTPStatus() int
	ErrorCode() string
	Description() string
}

// CookieSettings control the session cookies and where the browser lands after login
type CookieSettings struct {
	Domain            string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	PostLoginRedirect string
}

// Handler handles the login related HTTP requests
type Handler struct {
	providerName string
	redirector   AuthorizationURLBuilder
	exchanger    CallbackExchanger
	users        UserFinder
	cookies      CookieSettings
}

// NewHandler creates a new Handler instance
func NewHandler(providerName string, redirector AuthorizationURLBuilder, exchanger CallbackExchanger, users UserFinder, cookies CookieSettings) *Handler {
	if cookies.PostLoginRedirect == "" {
		cookies.PostLoginRedirect = "/"
	}
	return &Handler{
		providerName: providerName,
		redirector:   redirector,
		exchanger:    exchanger,
		users:        users,
		cookies:      cookies,
	}
}

// HandleLogin handles GET /oauth/{provider}
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.knownProvider(w, r) {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.redirector.BuildAuthorizationURL(), http.StatusFound)
}

// HandleCallback handles GET /oauth/{provider}/redirect
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.knownProvider(w, r) {
		return
	}

	q := r.URL.Query()
	creds, err := h.exchanger.HandleCallback(r.Context(), models.CallbackQuery{
		Code:             q.Get(constants.QueryCode),
		Error:            q.Get(constants.QueryError),
		ErrorDescription: q.Get(constants.QueryErrorDescription),
	})
	if err != nil {
		var pubErr publicError
		if errors.As(err, &pubErr) {
			utils.WriteError(w, pubErr.ErrorCode(), pubErr.Description(), pubErr.HTTPStatus())
			return
		}
		logger.FromContext(r.Context()).Error("unexpected callback error", zap.Error(err))
		utils.WriteError(w, "server_error", "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.cookie(constants.AccessTokenCookie, creds.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(constants.RefreshTokenCookie, creds.RefreshToken, h.cookies.RefreshTTL))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.cookies.PostLoginRedirect, http.StatusFound)
}

// HandleMe returns the user behind the session. Must be wrapped by middleware.Authenticate.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.GetAuthInfo(r.Context())
	if !ok {
		utils.WriteError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.users.FindByID(r.Context(), info.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteError(w, "invalid_token", "Session user no longer exists", http.StatusUnauthorized)
			return
		}
		logger.FromContext(r.Context()).Error("failed to load session user", zap.Error(err))
		utils.WriteError(w, "server_error", "Internal server error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, user)
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) knownProvider(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("provider") != h.providerName {
		utils.WriteError(w, "not_found", "Unknown identity provider", http.StatusNotFound)
		return false
	}
	return true
}

func (h *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
