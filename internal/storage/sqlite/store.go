// Package sqlite provides a SQLite implementation of the companion and user
// stores. Profiles are stored as JSON documents keyed by ID, which keeps the
// schema stable while the profile shape evolves.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS companions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	profile    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMP NOT NULL
);
`

// Store implements storage.CompanionStore and storage.UserStore on SQLite.
type Store struct {
	db *sql.DB

	// SQLite has a single writer; mu additionally serialises the
	// read-modify-write cycle in Mutate at the application level.
	mu sync.Mutex
}

// New opens (or creates) the database at path and ensures the schema exists.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// One open connection serialises writes and avoids SQLITE_BUSY under
	// concurrent load; WAL lets readers proceed alongside the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Create stores a new profile.
func (s *Store) Create(ctx context.Context, profile *types.CompanionProfile) error {
	if profile == nil || profile.ID == "" || profile.Name == "" {
		return storage.ErrInvalidInput
	}

	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companions (id, name, profile, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		profile.ID, profile.Name, string(doc), profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return storage.ErrConflict
		}
		return fmt.Errorf("sqlite: failed to insert companion: %w", err)
	}
	return nil
}

// Get retrieves a profile by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.CompanionProfile, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM companions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get companion: %w", err)
	}

	var profile types.CompanionProfile
	if err := json.Unmarshal([]byte(doc), &profile); err != nil {
		return nil, fmt.Errorf("sqlite: failed to unmarshal profile %s: %w", id, err)
	}
	return &profile, nil
}

// List returns summaries of all profiles ordered by creation time.
func (s *Store) List(ctx context.Context) ([]types.CompanionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM companions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list companions: %w", err)
	}
	defer rows.Close()

	var summaries []types.CompanionSummary
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan companion: %w", err)
		}
		var profile types.CompanionProfile
		if err := json.Unmarshal([]byte(doc), &profile); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal profile: %w", err)
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
		return fmt.Errorf("sqlite: failed to marshal profile: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companions SET name = ?, profile = ?, updated_at = ? WHERE id = ?`,
		profile.Name, string(doc), profile.UpdatedAt, profile.ID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update companion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Mutate applies fn to the stored profile under the store's write lock.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*types.CompanionProfile) error) (*types.CompanionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(profile); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Count returns the number of stored profiles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count companions: %w", err)
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
		`INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return storage.ErrConflict
		}
		return fmt.Errorf("sqlite: failed to insert user: %w", err)
	}
	return nil
}

// GetUserByName retrieves an account by username.
func (s *Store) GetUserByName(ctx context.Context, username string) (*types.UserAccount, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = ?`, username))
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*types.UserAccount, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*types.UserAccount, error) {
	var user types.UserAccount
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan user: %w", err)
	}
	return &user, nil
}

var (
	_ storage.CompanionStore = (*Store)(nil)
	_ storage.UserStore      = (*Store)(nil)
)
