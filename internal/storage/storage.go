package storage

import (
	"context"
	"io"

	"github.com/capsulekeep/capsule-server/internal/domain"
)

// Backend defines the interface for content-addressed storage backends.
type Backend interface {
	// Store writes content under the given name and reports the address
	// the backend assigned to it.
	Store(ctx context.Context, name string, reader io.Reader) (*domain.StoredObject, error)

	// Fetch reads back content previously stored under name.
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)

	// Remove deletes content previously stored under name.
	Remove(ctx context.Context, name string) error
}
