// Package sqlstore implements the user store on database/sql for SQLite
// (modernc.org/sqlite) and PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

type queries struct {
	schema      string
	insert      string
	findByEmail string
	findByID    string
	list        string
}

const columns = `id, email, username, password_placeholder, provider_user_id, created_at`

var dialects = map[Dialect]queries{
	SQLite: {
		schema: `CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			password_placeholder TEXT NOT NULL,
			provider_user_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		insert: `INSERT INTO users (` + columns + `) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO NOTHING`,
		findByEmail: `SELECT ` + columns + ` FROM users WHERE email = ?`,
		findByID:    `SELECT ` + columns + ` FROM users WHERE id = ?`,
		list:        `SELECT ` + columns + ` FROM users ORDER BY created_at, id`,
	},
	Postgres: {
		schema: `CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			password_placeholder TEXT NOT NULL,
			provider_user_id TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		insert: `INSERT INTO users (` + columns + `) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO NOTHING`,
		findByEmail: `SELECT ` + columns + ` FROM users WHERE email = $1`,
		findByID:    `SELECT ` + columns + ` FROM users WHERE id = $1`,
		list:        `SELECT ` + columns + ` FROM users ORDER BY created_at, id`,
	},
}

// Store persists users in a SQL database.
type Store struct {
	db *sql.DB
	q  queries
}

// Open connects, verifies the connection and applies the schema.
// For SQLite dsn is a file path (or ":memory:"), for Postgres a connection URL.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	q, ok := dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	driverDSN := dsn
	if dialect == SQLite && !strings.Contains(dsn, "?") {
		driverDSN = dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(string(dialect), driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	switch dialect {
	case SQLite:
		// one writer, also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	case Postgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	if _, err := db.ExecContext(ctx, q.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, q: q}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create relies on the UNIQUE email column: a conflicting insert affects no
// rows and is reported as ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, user *models.LocalUser) error {
	if err := store.Validate(user); err != nil {
		return err
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, s.q.insert,
		user.ID,
		store.NormalizeEmail(user.Email),
		user.Username,
		user.PasswordPlaceholder,
		user.ProviderUserID,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n == 0 {
		return store.ErrDuplicateEmail
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.LocalUser, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, s.q.findByEmail, store.NormalizeEmail(email)))
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.LocalUser, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, s.q.findByID, id))
}

func (s *Store) List(ctx context.Context) ([]*models.LocalUser, error) {
	rows, err := s.db.QueryContext(ctx, s.q.list)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.LocalUser
	for rows.Next() {
		user, err := scan(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row *sql.Row) (*models.LocalUser, error) {
	user, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return user, err
}

func scan(row scanner) (*models.LocalUser, error) {
	var (
		user      models.LocalUser
		createdAt int64
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordPlaceholder,
		&user.ProviderUserID,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &user, nil
}
