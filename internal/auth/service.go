// Package auth implements account registration, login, and cookie sessions.
// Passwords are stored as bcrypt hashes only.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

// ErrUnauthorized is returned for bad credentials and missing/expired sessions.
var ErrUnauthorized = errors.New("unauthorized")

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "kindred_session"

// Service handles accounts and sessions.
type Service struct {
	users      storage.UserStore
	sessions   storage.SessionStore
	sessionTTL time.Duration
}

// NewService creates an auth service with the given session lifetime.
func NewService(users storage.UserStore, sessions storage.SessionStore, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Register creates a new account. Duplicate usernames surface as
// storage.ErrConflict; the handler maps that to a validation response.
func (s *Service) Register(ctx context.Context, username, email, password string) (*types.UserAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, storage.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &types.UserAccount{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         "user",
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login verifies credentials and opens a session. The token is returned for
// the handler to set as a cookie. Wrong username and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*types.UserAccount, *types.Session, error) {
	account, err := s.users.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrUnauthorized
	}

	session := &types.Session{
		Token:     uuid.NewString(),
		UserID:    account.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("storing session: %w", err)
	}
	return account, session, nil
}

// Logout deletes the session for the given token. Unknown tokens are not an
// error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessions.DeleteSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a session token to its account.
func (s *Service) Authenticate(ctx context.Context, token string) (*types.UserAccount, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrUnauthorized
	}

	account, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return account, nil
}
