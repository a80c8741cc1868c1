package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/storage"
)

// FSBackend is a filesystem implementation of the storage.Backend interface
type FSBackend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// NewFSBackend creates a new filesystem storage backend
func NewFSBackend(config Config) (storage.Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSBackend{baseDir: config.BaseDir}, nil
}

// Store writes the content under baseDir; the address is the hex SHA-256
// computed while writing
func (b *FSBackend) Store(ctx context.Context, name string, reader io.Reader) (*domain.StoredObject, error) {
	filePath := filepath.Join(b.baseDir, name)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &domain.StoredObject{
		Address: hex.EncodeToString(hasher.Sum(nil)),
		Name:    name,
		Size:    size,
	}, nil
}

// Fetch opens stored content for reading
func (b *FSBackend) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	filePath := filepath.Join(b.baseDir, name)

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, errors.New("object not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Remove deletes stored content
func (b *FSBackend) Remove(ctx context.Context, name string) error {
	filePath := filepath.Join(b.baseDir, name)

	err := os.Remove(filePath)
	if os.IsNotExist(err) {
		return errors.New("object not found")
	} else if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
