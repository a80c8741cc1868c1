package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository/memory"
)

func newTestUser(username, email string) *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
}

func TestUserRepository_CreateAndLookups(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	user := newTestUser("alice", "alice@example.com")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	got, err = repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_CreateDuplicates(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("alice", "alice@example.com")))

	err := repo.Create(ctx, newTestUser("alice", "other@example.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	err = repo.Create(ctx, newTestUser("bob", "alice@example.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	user := newTestUser("alice", "alice@example.com")
	require.NoError(t, repo.Create(ctx, user))

	user.Username = "alice2"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err = repo.Get(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.Update(ctx, user), domain.ErrUserNotFound)
}
