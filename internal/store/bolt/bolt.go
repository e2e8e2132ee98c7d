// Package bolt stores users in a single BoltDB file.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
	"go.etcd.io/bbolt"
)

const (
	usersBucket      = "users"
	emailIndexBucket = "users_by_email"
)

// Store provides a BoltDB-backed user store.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.LocalUser
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(emailIndexBucket)).Get([]byte(store.NormalizeEmail(email)))
		if id == nil {
			return store.ErrNotFound
		}
		var err error
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.LocalUser
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create writes the record and its email index entry in one transaction.
// bbolt serialises writers, so the index check cannot race.
func (s *Store) Create(ctx context.Context, user *models.LocalUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.Validate(user); err != nil {
		return err
	}

	record := *user
	record.Email = store.NormalizeEmail(user.Email)
	payload, err := json.Marshal(toRecord(&record))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(emailIndexBucket))
		if index.Get([]byte(record.Email)) != nil {
			return store.ErrDuplicateEmail
		}
		if err := tx.Bucket([]byte(usersBucket)).Put([]byte(record.ID), payload); err != nil {
			return fmt.Errorf("put user: %w", err)
		}
		if err := index.Put([]byte(record.Email), []byte(record.ID)); err != nil {
			return fmt.Errorf("put email index: %w", err)
		}
		return nil
	})
}

func (s *Store) List(ctx context.Context) ([]*models.LocalUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var users []*models.LocalUser
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(usersBucket)).ForEach(func(_, v []byte) error {
			user, err := decode(v)
			if err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{usersBucket, emailIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// record is the on-disk shape. models.LocalUser hides the placeholder from JSON.
type record struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Username            string    `json:"username"`
	PasswordPlaceholder string    `json:"password_placeholder"`
	ProviderUserID      string    `json:"provider_user_id"`
	CreatedAt           time.Time `json:"created_at"`
}

func toRecord(u *models.LocalUser) record {
	return record(*u)
}

func getUser(tx *bbolt.Tx, id []byte) (*models.LocalUser, error) {
	payload := tx.Bucket([]byte(usersBucket)).Get(id)
	if payload == nil {
		return nil, store.ErrNotFound
	}
	return decode(payload)
}

func decode(payload []byte) (*models.LocalUser, error) {
	var r record
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&r); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	u := models.LocalUser(r)
	return &u, nil
}
