package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository"
	"github.com/capsulekeep/capsule-server/internal/storage"
)

// metadataUpdateAllowlist is the fixed set of metadata fields a caller may
// change after upload. Keys outside it are skipped and reported, not
// rejected.
var metadataUpdateAllowlist = []string{
	"filename", "contentType", "title", "description", "category", "tags",
}

// UploadRequest carries the caller-supplied descriptive fields of an upload.
type UploadRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	AccessCondition string `json:"access_condition"`
	Category        string `json:"category"`
	Tags            string `json:"tags"`
}

// ContentService handles capsule upload, retrieval, mutation and deletion
type ContentService struct {
	metadata repository.MetadataRepository
	users    repository.UserRepository
	store    storage.Backend
}

// NewContentService creates a new content service
func NewContentService(
	metadata repository.MetadataRepository,
	users repository.UserRepository,
	store storage.Backend,
) *ContentService {
	return &ContentService{
		metadata: metadata,
		users:    users,
		store:    store,
	}
}

// Upload spools the incoming file to a temp location, forwards it to the
// storage node and persists a metadata record combining the node's result
// with the caller-supplied fields. The temp file is removed on every path.
func (s *ContentService) Upload(
	ctx context.Context,
	file io.Reader,
	filename, contentType string,
	req UploadRequest,
	ownerID uuid.UUID,
) (*domain.Metadata, error) {
	if _, err := s.users.Get(ctx, ownerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}

	tmp, err := os.CreateTemp("", "upload-*-"+filepath.Base(filename))
	if err != nil {
		return nil, domain.Wrap(domain.ErrUploadFailed, err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temp upload file", "path", tmp.Name(), "err", err)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return nil, domain.Wrap(domain.ErrUploadFailed, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, domain.Wrap(domain.ErrUploadFailed, err)
	}

	// The temp file's unique name doubles as the stored name on the node.
	obj, err := s.store.Store(ctx, filepath.Base(tmp.Name()), tmp)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUploadFailed, err)
	}

	metadata := &domain.Metadata{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		ContentAddress:  obj.Address,
		Filename:        obj.Name,
		ContentType:     contentType,
		Title:           req.Title,
		Description:     req.Description,
		UploadedAt:      time.Now(),
		AccessCondition: req.AccessCondition,
		Category:        req.Category,
		Tags:            req.Tags,
	}

	if err := s.metadata.Create(ctx, metadata); err != nil {
		return nil, err
	}

	return metadata, nil
}

// RetrieveMetadata returns the metadata record with the given ID
func (s *ContentService) RetrieveMetadata(ctx context.Context, id uuid.UUID) (*domain.Metadata, error) {
	return s.metadata.Get(ctx, id)
}

// ListByOwner returns all metadata records owned by the given user. An
// owner with zero records is reported as metadata-not-found rather than an
// empty list.
func (s *ContentService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Metadata, error) {
	if _, err := s.users.Get(ctx, ownerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}

	list, err := s.metadata.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.Errorf(domain.ErrMetadataNotFound, "no metadata found for owner %s", ownerID)
	}

	return list, nil
}

// Download returns the stored bytes for a record, provided the requester
// owns it and its access-condition date has been reached.
func (s *ContentService) Download(ctx context.Context, id, requesterID uuid.UUID) ([]byte, *domain.Metadata, error) {
	metadata, err := s.metadata.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if metadata.OwnerID != requesterID {
		return nil, nil, domain.Errorf(domain.ErrAccessDenied, "requester does not own this metadata")
	}

	gate, err := time.Parse(domain.AccessConditionLayout, metadata.AccessCondition)
	if err != nil {
		return nil, nil, fmt.Errorf("parse access condition %q: %w", metadata.AccessCondition, err)
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(gate) {
		return nil, nil, domain.ErrAccessDenied
	}

	rc, err := s.store.Fetch(ctx, metadata.Filename)
	if err != nil {
		return nil, nil, domain.Wrap(domain.ErrFileNotFound, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, domain.Wrap(domain.ErrFileNotFound, err)
	}

	return data, metadata, nil
}

// UpdateFields applies a field-update map to a record the requester owns.
// Keys outside the allowlist are skipped and named in the returned summary.
func (s *ContentService) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]string, requesterID uuid.UUID) (string, error) {
	metadata, err := s.metadata.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if metadata.OwnerID != requesterID {
		return "", domain.Errorf(domain.ErrAccessDenied, "requester does not own this metadata")
	}

	var ignored []string
	for key, value := range updates {
		if !slices.Contains(metadataUpdateAllowlist, key) {
			ignored = append(ignored, key)
			continue
		}
		switch key {
		case "filename":
			metadata.Filename = value
		case "contentType":
			metadata.ContentType = value
		case "title":
			metadata.Title = value
		case "description":
			metadata.Description = value
		case "category":
			metadata.Category = value
		case "tags":
			metadata.Tags = value
		}
	}

	if err := s.metadata.Update(ctx, metadata); err != nil {
		return "", err
	}

	if len(ignored) == 0 {
		return "update complete.", nil
	}
	slices.Sort(ignored)
	return "update complete. ignored fields: " + strings.Join(ignored, ", "), nil
}

// Delete removes the stored content first, then the metadata record. If the
// remote removal fails the record is kept so it still points at whatever
// remains on the node.
func (s *ContentService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	metadata, err := s.metadata.Get(ctx, id)
	if err != nil {
		return err
	}

	if metadata.OwnerID != requesterID {
		return domain.Errorf(domain.ErrAccessDenied, "requester does not own this metadata")
	}

	if err := s.store.Remove(ctx, metadata.Filename); err != nil {
		return domain.Wrap(domain.ErrContentDeleteFailed, err)
	}

	return s.metadata.Delete(ctx, id)
}
