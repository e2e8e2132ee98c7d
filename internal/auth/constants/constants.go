package constants

import "time"

const (
	// ResponseTypeCode is the only response type the login flow requests
	ResponseTypeCode = "code"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// Callback query parameters
	QueryCode             = "code"
	QueryError            = "error"
	QueryErrorDescription = "error_description"

	DefaultUpstreamTimeout = 10 * time.Second

	// FallbackUsername is used when neither a display name nor an email local part exists
	FallbackUsername = "user"

	// MaxErrorBodyBytes bounds the upstream body echoed in token exchange errors
	MaxErrorBodyBytes = 512
)
