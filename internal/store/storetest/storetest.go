// Package storetest holds behaviour checks shared by every UserStore backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.UserStore

// Run exercises the UserStore contract against the stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and find", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("email is case insensitive", func(t *testing.T) { testEmailNormalization(t, newStore(t)) })
	t.Run("duplicate email", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("list ordered by creation", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("concurrent create", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("invalid user", func(t *testing.T) { testInvalid(t, newStore(t)) })
}

func user(id, email string, at time.Time) *models.LocalUser {
	return &models.LocalUser{
		ID:                  id,
		Email:               email,
		Username:            "name-" + id,
		PasswordPlaceholder: "$2a$10$placeholder",
		ProviderUserID:      "p-" + id,
		CreatedAt:           at,
	}
}

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testCreateAndFind(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	want := user("u1", "a@b.com", epoch)
	require.NoError(t, s.Create(ctx, want))

	got, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindByEmail mismatch (-want +got):\n%s", diff)
	}

	got, err = s.FindByID(ctx, "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindByID mismatch (-want +got):\n%s", diff)
	}
}

func testEmailNormalization(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, user("u1", "  Al@Example.COM ", epoch)))

	got, err := s.FindByEmail(ctx, "al@example.com")
	require.NoError(t, err)
	assert.Equal(t, "al@example.com", got.Email)

	err = s.Create(ctx, user("u2", "AL@example.com", epoch))
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func testDuplicateEmail(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, user("u1", "a@b.com", epoch)))
	err := s.Create(ctx, user("u2", "a@b.com", epoch.Add(time.Second)))
	require.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = s.FindByID(ctx, "u2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func testNotFound(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testList(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.Create(ctx, user("late", "c@b.com", epoch.Add(2*time.Hour))))
	require.NoError(t, s.Create(ctx, user("early", "a@b.com", epoch)))
	require.NoError(t, s.Create(ctx, user("mid", "b@b.com", epoch.Add(time.Hour))))

	users, err = s.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"early", "mid", "late"}, ids)
}

func testConcurrentCreate(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	const workers = 16
	var created, duplicates atomic.Int32
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			err := s.Create(ctx, user(fmt.Sprintf("u%d", i), "race@b.com", epoch))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, store.ErrDuplicateEmail):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), duplicates.Load())

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testInvalid(t *testing.T, s store.UserStore) {
	defer s.Close()
	ctx := context.Background()

	assert.Error(t, s.Create(ctx, user("", "a@b.com", epoch)))
	assert.Error(t, s.Create(ctx, user("u1", "   ", epoch)))
}
