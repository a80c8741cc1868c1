package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/capsulekeep/capsule-server/internal/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete exists for test cleanup; nothing in the request path removes users.
	Delete(ctx context.Context, id uuid.UUID) error
}

// MetadataRepository defines the interface for capsule metadata persistence.
type MetadataRepository interface {
	Create(ctx context.Context, metadata *domain.Metadata) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Metadata, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Metadata, error)
	Update(ctx context.Context, metadata *domain.Metadata) error
	Delete(ctx context.Context, id uuid.UUID) error
}
