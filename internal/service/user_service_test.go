package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository/memory"
	"github.com/capsulekeep/capsule-server/internal/service"
)

func setupUserService(t *testing.T) *service.UserService {
	t.Helper()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return service.NewUserService(memory.NewUserRepository(), tokens)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := setupUserService(t)

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	// Stored hash verifies against the raw password
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret"))
	assert.NoError(t, err)
}

func TestRegister_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc := setupUserService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "s3cret")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "s3cret")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := setupUserService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "alice@example.com", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "s3cret")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := setupUserService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	t.Run("username change", func(t *testing.T) {
		user, err := svc.UpdateProfile(ctx, "alice@example.com", map[string]string{"username": "alice2"})
		require.NoError(t, err)
		assert.Equal(t, "alice2", user.Username)
	})

	t.Run("password change takes effect", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "alice@example.com", map[string]string{"password": "newpass"})
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "alice@example.com", "newpass")
		assert.NoError(t, err)
		_, _, err = svc.Login(ctx, "alice@example.com", "s3cret")
		assert.ErrorIs(t, err, domain.ErrInvalidPassword)
	})

	t.Run("email is immutable regardless of other keys", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "alice@example.com", map[string]string{
			"username": "alice3",
			"email":    "new@example.com",
		})
		assert.ErrorIs(t, err, domain.ErrEmailUpdateForbidden)

		// The username change in the same call must not have stuck
		user, err := svc.UpdateProfile(ctx, "alice@example.com", map[string]string{})
		require.NoError(t, err)
		assert.NotEqual(t, "alice3", user.Username)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "alice@example.com", map[string]string{"role": "admin"})
		assert.ErrorIs(t, err, domain.ErrInvalidUpdateField)
		assert.Contains(t, err.Error(), "role")
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "bob@example.com", "s3cret")
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, "alice@example.com", map[string]string{"username": "bob"})
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "nobody@example.com", map[string]string{"username": "x"})
		assert.ErrorIs(t, err, domain.ErrUpdateTargetNotFound)
	})
}
