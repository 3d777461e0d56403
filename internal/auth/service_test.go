package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.NewUserStore(), memory.NewSessionStore(), time.Hour)
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newTestService()

	account, err := svc.Register(context.Background(), "ada", "ada@example.com", "hunter2")
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "user", account.Role)
	assert.NotEqual(t, "hunter2", account.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2")))
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(context.Background(), "", "", "pw")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "ada", "", "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(context.Background(), "ada", "", "pw")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ada", "", "pw2")
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "ada", "", "hunter2")
	require.NoError(t, err)

	account, session, err := svc.Login(ctx, "ada", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, account.ID)
	require.NotEmpty(t, session.Token)

	resolved, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, resolved.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada", "", "hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada", "", "pw")
	require.NoError(t, err)
	_, session, err := svc.Login(ctx, "ada", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Logout is idempotent.
	assert.NoError(t, svc.Logout(ctx, session.Token))
	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc := NewService(memory.NewUserStore(), memory.NewSessionStore(), -time.Minute)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada", "", "pw")
	require.NoError(t, err)
	_, session, err := svc.Login(ctx, "ada", "pw")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	svc := newTestService()
	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
