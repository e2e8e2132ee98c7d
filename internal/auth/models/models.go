package models

import "time"

// CallbackQuery holds the query parameters the provider appends to the redirect URI.
type CallbackQuery struct {
	Code             string
	Error            string
	ErrorDescription string
}

// TokenPair is the part of the token endpoint response the login flow uses.
type TokenPair struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// ProviderProfile represents the fields extracted from the provider's profile endpoint.
// Any of them may be empty.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	DisplayName    string
}

// LocalUser is the application's user record. Email is the identity key.
type LocalUser struct {
	ID                  string    `json:"id" yaml:"id"`
	Email               string    `json:"email" yaml:"email"`
	Username            string    `json:"username" yaml:"username"`
	PasswordPlaceholder string    `json:"-" yaml:"-"`
	ProviderUserID      string    `json:"provider_user_id,omitempty" yaml:"provider_user_id,omitempty"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}

// SessionCredentials are the tokens handed back to the client as cookies.
type SessionCredentials struct {
	AccessToken  string
	RefreshToken string
}
