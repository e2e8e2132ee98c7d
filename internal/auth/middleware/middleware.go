package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/constants"
	"github.com/brizzai/oauth-login/internal/auth/session"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// AuthContext is the key type for the context
type authContextKey string

const (
	// AuthContextKey is used to store auth info in the request context
	AuthContextKey authContextKey = "auth"

	RequestIDHeader = "X-Request-ID"
)

// AuthInfo represents the authenticated session stored in context
type AuthInfo struct {
	UserID  string
	Email   string
	TokenID string
}

// TokenVerifier validates session tokens
type TokenVerifier interface {
	Verify(token string, want session.TokenType) (*session.Claims, error)
}

// Authenticate rejects requests without a valid access token. The token is
// read from the access_token cookie, then from the Authorization header.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "unauthorized", "Authentication required")
				return
			}

			claims, err := verifier.Verify(token, session.TokenTypeAccess)
			if err != nil {
				logger.FromContext(r.Context()).Debug("session token rejected", zap.Error(err))
				writeUnauthorized(w, "invalid_token", "Session token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, &AuthInfo{
				UserID:  claims.UserID,
				Email:   claims.Email,
				TokenID: claims.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthInfo returns the session placed in ctx by Authenticate
func GetAuthInfo(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(AuthContextKey).(*AuthInfo)
	return info, ok && info != nil
}

// RequestLogger attaches a request scoped logger to the context and logs one
// line per request. The query string is never logged, it carries authorization codes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		reqLogger := logger.With(zap.String("request_id", requestID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.NewContext(r.Context(), reqLogger)))

		reqLogger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// Recover turns a panic into a 500 instead of dropping the connection. Once
// the handler has sent headers the response is left as is.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.FromContext(r.Context()).Error("panic serving request",
					zap.String("path", r.URL.Path),
					zap.Any("panic", p),
					zap.Bool("headers_sent", rec.wroteHeader),
				)
				if !rec.wroteHeader {
					utils.WriteError(w, "server_error", "Internal server error", http.StatusInternalServerError)
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// CORS allows browser clients from the given origins. With no origins it is a no-op.
func CORS(allowOrigins []string) func(http.Handler) http.Handler {
	if len(allowOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "WWW-Authenticate"},
		AllowCredentials: true,
	})
	return c.Handler
}

// Chain applies middlewares so that the first one is the outermost
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(constants.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get(constants.AuthHeaderName)
	if strings.HasPrefix(authHeader, constants.AuthHeaderPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, constants.AuthHeaderPrefix))
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="oauth-login", error="%s", error_description="%s"`, code, message))
	utils.WriteError(w, code, message, http.StatusUnauthorized)
}
