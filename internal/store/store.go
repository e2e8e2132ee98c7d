// Package store defines the persistence boundary for local users.
//
// Implementations must make Create atomic with respect to the email key: two
// concurrent Create calls for the same email leave exactly one record and the
// loser gets ErrDuplicateEmail.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/brizzai/oauth-login/internal/auth/models"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// UserStore persists LocalUser records keyed by email.
type UserStore interface {
	// FindByEmail returns ErrNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*models.LocalUser, error)
	FindByID(ctx context.Context, id string) (*models.LocalUser, error)
	// Create inserts user, or returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *models.LocalUser) error
	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*models.LocalUser, error)
	Close() error
}

// NormalizeEmail is the canonical form used as the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the fields every backend requires before insertion.
func Validate(user *models.LocalUser) error {
	if user == nil {
		return errors.New("user is required")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}
	if NormalizeEmail(user.Email) == "" {
		return errors.New("user email is required")
	}
	return nil
}
