// Package memory provides in-process implementations of the storage
// interfaces. This is the default engine: all state lives in maps guarded by
// a RWMutex and is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

// CompanionStore is an in-memory storage.CompanionStore.
//
// Go's HTTP server handles requests in parallel, so unlike the cooperative
// model this was ported from, every mutation goes through the store's lock.
// Mutate gives the chat path read-modify-write atomicity per profile.
type CompanionStore struct {
	mu       sync.RWMutex
	profiles map[string]*types.CompanionProfile
}

// NewCompanionStore creates an empty in-memory companion store.
func NewCompanionStore() *CompanionStore {
	return &CompanionStore{profiles: make(map[string]*types.CompanionProfile)}
}

// Create stores a new profile.
func (s *CompanionStore) Create(_ context.Context, profile *types.CompanionProfile) error {
	if profile == nil || profile.ID == "" || profile.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return storage.ErrConflict
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

// Get retrieves a copy of the profile with the given ID.
func (s *CompanionStore) Get(_ context.Context, id string) (*types.CompanionProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return profile.Clone(), nil
}

// List returns summaries of all profiles, sorted by creation time.
func (s *CompanionStore) List(_ context.Context) ([]types.CompanionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*types.CompanionProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	summaries := make([]types.CompanionSummary, len(all))
	for i, p := range all {
		summaries[i] = p.Summary()
	}
	return summaries, nil
}

// Update replaces an existing profile.
func (s *CompanionStore) Update(_ context.Context, profile *types.CompanionProfile) error {
	if profile == nil || profile.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		return storage.ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

// Mutate applies fn to the stored profile under the write lock. Concurrent
// chat turns against the same companion serialize here, so no log entry or
// intimacy increment is ever lost.
func (s *CompanionStore) Mutate(_ context.Context, id string, fn func(*types.CompanionProfile) error) (*types.CompanionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	working := profile.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	s.profiles[id] = working
	return working.Clone(), nil
}

// Count returns the number of stored profiles.
func (s *CompanionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

// Close is a no-op for the in-memory store.
func (s *CompanionStore) Close() error { return nil }

var _ storage.CompanionStore = (*CompanionStore)(nil)

// UserStore is an in-memory storage.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	byID   map[string]*types.UserAccount
	byName map[string]*types.UserAccount
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[string]*types.UserAccount),
		byName: make(map[string]*types.UserAccount),
	}
}

// CreateUser stores a new account, rejecting duplicate usernames.
func (s *UserStore) CreateUser(_ context.Context, user *types.UserAccount) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[user.Username]; ok {
		return storage.ErrConflict
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byName[user.Username] = &cp
	return nil
}

// GetUserByName retrieves an account by username.
func (s *UserStore) GetUserByName(_ context.Context, username string) (*types.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byName[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUser retrieves an account by ID.
func (s *UserStore) GetUser(_ context.Context, id string) (*types.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

var _ storage.UserStore = (*UserStore)(nil)

// SessionStore is an in-memory storage.SessionStore with lazy expiry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*types.Session)}
}

// PutSession stores a session keyed by its token.
func (s *SessionStore) PutSession(_ context.Context, session *types.Session) error {
	if session == nil || session.Token == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.Token] = &cp
	return nil
}

// GetSession retrieves a live session by token. Expired sessions are removed
// and reported as not found.
func (s *SessionStore) GetSession(_ context.Context, token string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if session.Expired(time.Now()) {
		delete(s.sessions, token)
		return nil, storage.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (s *SessionStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

var _ storage.SessionStore = (*SessionStore)(nil)
