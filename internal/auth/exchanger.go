package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brizzai/oauth-login/internal/auth/constants"
	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/auth/providers"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CredentialIssuer mints the session tokens for a resolved user.
type CredentialIssuer interface {
	Mint(ctx context.Context, user *models.LocalUser) (*models.SessionCredentials, error)
}

// Observer receives pipeline measurements. All methods must be safe for
// concurrent use.
type Observer interface {
	CallbackOutcome(outcome string)
	ObserveUpstream(stage string, d time.Duration)
	UserCreated()
}

type nopObserver struct{}

func (nopObserver) CallbackOutcome(string)                {}
func (nopObserver) ObserveUpstream(string, time.Duration) {}
func (nopObserver) UserCreated()                          {}

const outcomeSuccess = "success"

// CallbackExchanger turns a provider callback into session credentials.
// It holds no per-request state and is safe for concurrent use.
type CallbackExchanger struct {
	provider   providers.Provider
	users      store.UserStore
	issuer     CredentialIssuer
	observer   Observer
	bcryptCost int
	now        func() time.Time
}

type CallbackExchangerParams struct {
	fx.In

	Provider providers.Provider
	Users    store.UserStore
	Issuer   CredentialIssuer
	Observer Observer `optional:"true"`
}

func NewCallbackExchanger(params CallbackExchangerParams) *CallbackExchanger {
	observer := params.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &CallbackExchanger{
		provider:   params.Provider,
		users:      params.Users,
		issuer:     params.Issuer,
		observer:   observer,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// HandleCallback runs the login pipeline. Stages run strictly in order and the
// first failure ends the call; every returned error is a *CallbackError.
func (e *CallbackExchanger) HandleCallback(ctx context.Context, query models.CallbackQuery) (_ *models.SessionCredentials, err error) {
	log := logger.FromContext(ctx).With(zap.String("provider", e.provider.Name()))
	defer func() {
		outcome := outcomeSuccess
		var cbErr *CallbackError
		if errors.As(err, &cbErr) {
			outcome = string(cbErr.Kind)
			fields := []zap.Field{zap.String("kind", outcome)}
			if cbErr.Err != nil {
				fields = append(fields, zap.Error(cbErr.Err))
			}
			if cbErr.Kind.HTTPStatus() >= 500 {
				log.Error("login callback failed", fields...)
			} else {
				log.Warn("login callback rejected", fields...)
			}
		}
		e.observer.CallbackOutcome(outcome)
	}()

	if query.Error != "" {
		message := query.ErrorDescription
		if message == "" {
			message = query.Error
		}
		return nil, &CallbackError{Kind: KindProviderDenied, Message: message}
	}
	if strings.TrimSpace(query.Code) == "" {
		return nil, newCallbackError(KindInvalidRequest, nil)
	}

	start := time.Now()
	token, err := e.provider.ExchangeCode(ctx, query.Code)
	e.observer.ObserveUpstream(string(providers.OpToken), time.Since(start))
	if err != nil {
		return nil, classifyUpstream(providers.OpToken, err)
	}

	start = time.Now()
	profile, err := e.provider.FetchProfile(ctx, token.AccessToken)
	e.observer.ObserveUpstream(string(providers.OpProfile), time.Since(start))
	if err != nil {
		return nil, classifyUpstream(providers.OpProfile, err)
	}

	email := store.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, newCallbackError(KindMissingEmail, nil)
	}

	user, created, err := e.resolveUser(ctx, profile, email)
	if err != nil {
		return nil, newCallbackError(KindUserStoreFailure, err)
	}

	creds, err := e.issuer.Mint(ctx, user)
	if err != nil {
		return nil, newCallbackError(KindCredentialIssueFailed, err)
	}

	log.Info("login succeeded", zap.String("user_id", user.ID), zap.Bool("created", created))
	return creds, nil
}

// resolveUser returns the user owning email, creating it on first login.
// A concurrent login that wins the insert is picked up by re-reading.
func (e *CallbackExchanger) resolveUser(ctx context.Context, profile *models.ProviderProfile, email string) (*models.LocalUser, bool, error) {
	user, err := e.users.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	candidate, err := e.newLocalUser(profile, email)
	if err != nil {
		return nil, false, err
	}

	err = e.users.Create(ctx, candidate)
	switch {
	case err == nil:
		e.observer.UserCreated()
		return candidate, true, nil
	case errors.Is(err, store.ErrDuplicateEmail):
		user, err = e.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("find user after duplicate insert: %w", err)
		}
		return user, false, nil
	default:
		return nil, false, fmt.Errorf("create user: %w", err)
	}
}

func (e *CallbackExchanger) newLocalUser(profile *models.ProviderProfile, email string) (*models.LocalUser, error) {
	placeholder, err := e.placeholderPassword()
	if err != nil {
		return nil, err
	}
	return &models.LocalUser{
		ID:                  uuid.NewString(),
		Email:               email,
		Username:            Username(profile.DisplayName, email),
		PasswordPlaceholder: placeholder,
		ProviderUserID:      profile.ProviderUserID,
		CreatedAt:           e.now().UTC(),
	}, nil
}

// placeholderPassword hashes random bytes nobody knows, so the account cannot
// be used with password login.
func (e *CallbackExchanger) placeholderPassword() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword(secret, e.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash placeholder password: %w", err)
	}
	return string(hash), nil
}

// Username picks the display name, then the email local part, then a fixed fallback.
func Username(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return constants.FallbackUsername
}

func classifyUpstream(op providers.Op, err error) *CallbackError {
	var transportErr *providers.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return newCallbackError(KindUpstreamTimeout, err)
		}
		return newCallbackError(KindUpstreamUnavailable, err)
	}

	var statusErr *providers.StatusError
	if errors.As(err, &statusErr) && statusErr.Op == providers.OpToken {
		body := truncate(string(statusErr.Body), constants.MaxErrorBodyBytes)
		return &CallbackError{
			Kind:    KindTokenExchangeFailed,
			Message: fmt.Sprintf("token endpoint returned status %d: %s", statusErr.StatusCode, body),
			Status:  statusErr.StatusCode,
			Body:    body,
			Err:     err,
		}
	}

	if op == providers.OpToken {
		return newCallbackError(KindMalformedTokenResponse, err)
	}
	return newCallbackError(KindProfileFetchFailed, err)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
