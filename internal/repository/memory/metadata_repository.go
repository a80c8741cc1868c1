package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository"
)

// MetadataRepository is an in-memory implementation of the MetadataRepository interface
type MetadataRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Metadata
}

// NewMetadataRepository creates a new in-memory metadata repository
func NewMetadataRepository() repository.MetadataRepository {
	return &MetadataRepository{
		records: make(map[uuid.UUID]*domain.Metadata),
	}
}

// Create adds a new metadata record
func (r *MetadataRepository) Create(ctx context.Context, metadata *domain.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *metadata
	r.records[metadata.ID] = &cp
	return nil
}

// Get retrieves a metadata record by ID
func (r *MetadataRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadata, exists := r.records[id]
	if !exists {
		return nil, domain.ErrMetadataNotFound
	}

	cp := *metadata
	return &cp, nil
}

// ListByOwner retrieves all metadata records owned by the given user,
// newest first.
func (r *MetadataRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Metadata
	for _, m := range r.records {
		if m.OwnerID == ownerID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	return result, nil
}

// Update replaces an existing metadata record
func (r *MetadataRepository) Update(ctx context.Context, metadata *domain.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[metadata.ID]; !exists {
		return domain.ErrMetadataNotFound
	}

	cp := *metadata
	r.records[metadata.ID] = &cp
	return nil
}

// Delete removes a metadata record
func (r *MetadataRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		return domain.ErrMetadataNotFound
	}

	delete(r.records, id)
	return nil
}
