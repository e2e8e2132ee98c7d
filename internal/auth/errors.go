package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies why a callback failed. Its value doubles as the "error"
// code in the JSON response.
type Kind string

const (
	KindProviderDenied         Kind = "provider_denied"
	KindInvalidRequest         Kind = "invalid_request"
	KindTokenExchangeFailed    Kind = "token_exchange_failed"
	KindMalformedTokenResponse Kind = "malformed_token_response"
	KindProfileFetchFailed     Kind = "profile_fetch_failed"
	KindMissingEmail           Kind = "missing_email"
	KindUpstreamTimeout        Kind = "upstream_timeout"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindUserStoreFailure       Kind = "user_store_failure"
	KindCredentialIssueFailed  Kind = "credential_issue_failed"
)

var kindStatus = map[Kind]int{
	KindProviderDenied:         http.StatusForbidden,
	KindInvalidRequest:         http.StatusBadRequest,
	KindTokenExchangeFailed:    http.StatusBadGateway,
	KindMalformedTokenResponse: http.StatusBadGateway,
	KindProfileFetchFailed:     http.StatusBadGateway,
	KindMissingEmail:           http.StatusBadRequest,
	KindUpstreamTimeout:        http.StatusGatewayTimeout,
	KindUpstreamUnavailable:    http.StatusBadGateway,
	KindUserStoreFailure:       http.StatusInternalServerError,
	KindCredentialIssueFailed:  http.StatusInternalServerError,
}

var kindMessage = map[Kind]string{
	KindInvalidRequest:         "authorization code is required",
	KindMalformedTokenResponse: "identity provider returned an unusable token response",
	KindProfileFetchFailed:     "could not read the user profile from the identity provider",
	KindMissingEmail:           "account has no email",
	KindUpstreamTimeout:        "identity provider did not respond in time",
	KindUpstreamUnavailable:    "identity provider is unreachable",
	KindUserStoreFailure:       "could not resolve the local user",
	KindCredentialIssueFailed:  "could not issue session credentials",
}

// HTTPStatus is the response status for the kind.
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CallbackError is the single error type returned by the callback pipeline.
// Message is safe to show to the client, Err carries the internal cause and
// only ever goes to the log.
type CallbackError struct {
	Kind    Kind
	Message string
	// Status and Body are the upstream response, set for token exchange failures
	Status int
	Body   string
	Err    error
}

func newCallbackError(kind Kind, cause error) *CallbackError {
	return &CallbackError{Kind: kind, Message: kindMessage[kind], Err: cause}
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CallbackError) Unwrap() error { return e.Err }

func (e *CallbackError) HTTPStatus() int { return e.Kind.HTTPStatus() }

func (e *CallbackError) ErrorCode() string { return string(e.Kind) }

func (e *CallbackError) Description() string { return e.Message }
