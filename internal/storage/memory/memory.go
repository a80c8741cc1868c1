package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"sync"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/storage"
)

// MemoryBackend is an in-memory implementation of the storage.Backend interface
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBackend creates a new in-memory storage backend
func NewMemoryBackend() storage.Backend {
	return &MemoryBackend{
		objects: make(map[string][]byte),
	}
}

// Store keeps the content in memory; the address is the hex SHA-256 of the bytes
func (b *MemoryBackend) Store(ctx context.Context, name string, reader io.Reader) (*domain.StoredObject, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[name] = data

	sum := sha256.Sum256(data)
	return &domain.StoredObject{
		Address: hex.EncodeToString(sum[:]),
		Name:    name,
		Size:    int64(len(data)),
	}, nil
}

// Fetch reads back stored content
func (b *MemoryBackend) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[name]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove deletes stored content
func (b *MemoryBackend) Remove(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[name]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, name)
	return nil
}
