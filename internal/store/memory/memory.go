package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
)

// Store keeps users in process memory. Contents are lost on restart.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*models.LocalUser
	byEmail map[string]string
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*models.LocalUser),
		byEmail: make(map[string]string),
	}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(user), nil
}

func (s *Store) Create(ctx context.Context, user *models.LocalUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.Validate(user); err != nil {
		return err
	}
	email := store.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return store.ErrDuplicateEmail
	}
	stored := clone(user)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	users := make([]*models.LocalUser, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, clone(u))
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Store) Close() error { return nil }

func clone(u *models.LocalUser) *models.LocalUser {
	c := *u
	return &c
}
