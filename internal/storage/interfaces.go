// Package storage provides composable storage interfaces for the Kindred
// companion system.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed, so a durable store can be
// substituted for the default in-memory one without touching request handlers.
package storage

import (
	"context"

	"github.com/scrypster/kindred/pkg/types"
)

// CompanionStore provides CRUD operations for companion profiles.
type CompanionStore interface {
	// Create stores a new profile. The profile must carry a non-empty name;
	// otherwise ErrInvalidInput is returned.
	Create(ctx context.Context, profile *types.CompanionProfile) error

	// Get retrieves a profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	Get(ctx context.Context, id string) (*types.CompanionProfile, error)

	// List returns summaries of all profiles.
	List(ctx context.Context) ([]types.CompanionSummary, error)

	// Update replaces an existing profile.
	// Returns ErrNotFound if the profile doesn't exist.
	Update(ctx context.Context, profile *types.CompanionProfile) error

	// Mutate applies fn to the profile with id under the store's write lock,
	// persisting the result. This is the read-modify-write primitive the chat
	// dispatcher uses so concurrent turns never lose log or intimacy updates.
	Mutate(ctx context.Context, id string, fn func(*types.CompanionProfile) error) (*types.CompanionProfile, error)

	// Count returns the number of stored profiles.
	Count(ctx context.Context) (int, error)

	Close() error
}

// UserStore provides account storage for the auth service.
type UserStore interface {
	// CreateUser stores a new account.
	// Returns ErrConflict if the username is already taken.
	CreateUser(ctx context.Context, user *types.UserAccount) error

	// GetUserByName retrieves an account by username.
	// Returns ErrNotFound if no such account exists.
	GetUserByName(ctx context.Context, username string) (*types.UserAccount, error)

	// GetUser retrieves an account by ID.
	GetUser(ctx context.Context, id string) (*types.UserAccount, error)
}

// SessionStore holds login sessions. Sessions are process-local and carry no
// durability guarantee.
type SessionStore interface {
	PutSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, token string) (*types.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
