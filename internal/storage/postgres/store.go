// Package postgres provides a PostgreSQL implementation of the companion and
// user stores for multi-instance deployments. Like the SQLite backend,
// profiles are stored as JSON documents; Mutate uses SELECT ... FOR UPDATE so
// concurrent chat turns against one profile never lose updates.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS companions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	profile    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL
);
`

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// Store implements storage.CompanionStore and storage.UserStore on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL using dsn and ensures the schema exists.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Create stores a new profile.
func (s *Store) Create(ctx context.Context, profile *types.CompanionProfile) error {
	if profile == nil || profile.ID == "" || profile.Name == "" {
		return storage.ErrInvalidInput
	}

	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companions (id, name, profile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.Name, string(doc), profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("postgres: failed to insert companion: %w", err)
	}
	return nil
}

// Get retrieves a profile by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.CompanionProfile, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM companions WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get companion: %w", err)
	}

	var profile types.CompanionProfile
	if err := json.Unmarshal([]byte(doc), &profile); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal profile %s: %w", id, err)
	}
	return &profile, nil
}

// List returns summaries of all profiles ordered by creation time.
func (s *Store) List(ctx context.Context) ([]types.CompanionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM companions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list companions: %w", err)
	}
	defer rows.Close()

	var summaries []types.CompanionSummary
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan companion: %w", err)
		}
		var profile types.CompanionProfile
		if err := json.Unmarshal([]byte(doc), &profile); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal profile: %w", err)
		}
		summaries = append(summaries, profile.Summary())
	}
	return summaries, rows.Err()
}

// Update replaces an existing profile.
func (s *Store) Update(ctx context.Context, profile *types.CompanionProfile) error {
	if profile == nil || profile.ID == "" {
		return storage.ErrInvalidInput
	}
	profile.UpdatedAt = time.Now()

	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal profile: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companions SET name = $1, profile = $2, updated_at = $3 WHERE id = $4`,
		profile.Name, string(doc), profile.UpdatedAt, profile.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update companion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Mutate applies fn to the stored profile inside a transaction holding a row
// lock, so concurrent writers on other instances serialize per profile.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*types.CompanionProfile) error) (*types.CompanionProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT profile FROM companions WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to lock companion: %w", err)
	}

	var profile types.CompanionProfile
	if err := json.Unmarshal([]byte(doc), &profile); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal profile %s: %w", id, err)
	}
	if err := fn(&profile); err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now()

	updated, err := json.Marshal(&profile)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to marshal profile: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE companions SET name = $1, profile = $2, updated_at = $3 WHERE id = $4`,
		profile.Name, string(updated), profile.UpdatedAt, profile.ID); err != nil {
		return nil, fmt.Errorf("postgres: failed to update companion: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: failed to commit: %w", err)
	}
	return &profile, nil
}

// Count returns the number of stored profiles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: failed to count companions: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateUser stores a new account, rejecting duplicate usernames.
func (s *Store) CreateUser(ctx context.Context, user *types.UserAccount) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("postgres: failed to insert user: %w", err)
	}
	return nil
}

// GetUserByName retrieves an account by username.
func (s *Store) GetUserByName(ctx context.Context, username string) (*types.UserAccount, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = $1`, username))
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*types.UserAccount, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = $1`, id))
}

func (s *Store) scanUser(row *sql.Row) (*types.UserAccount, error) {
	var user types.UserAccount
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan user: %w", err)
	}
	return &user, nil
}

var (
	_ storage.CompanionStore = (*Store)(nil)
	_ storage.UserStore      = (*Store)(nil)
)
