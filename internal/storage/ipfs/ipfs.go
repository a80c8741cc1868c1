// Package ipfs stores content through the MFS (mutable file system) HTTP
// API of a local IPFS node. Files are written under a fixed MFS folder and
// the content address is taken from the node's stat response.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/storage"
)

// Config options for the IPFS MFS backend
type Config struct {
	// APIBaseURL is the node's HTTP API root, e.g. http://localhost:5001/api/v0
	APIBaseURL string
	// BasePath is the MFS folder files are stored under (default /capsules)
	BasePath string
	// Timeout for each API call (default 30s)
	Timeout time.Duration
}

// MFSBackend is an IPFS MFS implementation of the storage.Backend interface
type MFSBackend struct {
	apiBaseURL string
	basePath   string
	client     *http.Client
}

// NewMFSBackend creates a new IPFS MFS storage backend
func NewMFSBackend(config Config) (storage.Backend, error) {
	if config.APIBaseURL == "" {
		return nil, errors.New("API base URL is required")
	}
	if config.BasePath == "" {
		config.BasePath = "/capsules"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &MFSBackend{
		apiBaseURL: strings.TrimRight(config.APIBaseURL, "/"),
		basePath:   strings.TrimRight(config.BasePath, "/"),
		client:     &http.Client{Timeout: config.Timeout},
	}, nil
}

// Store writes the content to MFS and stats it to obtain the content address
func (b *MFSBackend) Store(ctx context.Context, name string, reader io.Reader) (*domain.StoredObject, error) {
	mfsPath := b.basePath + "/" + name

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	size, err := io.Copy(part, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	writeURL := fmt.Sprintf("%s/files/write?arg=%s&create=true&truncate=true",
		b.apiBaseURL, url.QueryEscape(mfsPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, writeURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("MFS write request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("MFS write failed: %s", resp.Status)
	}

	address, err := b.stat(ctx, mfsPath)
	if err != nil {
		return nil, err
	}

	return &domain.StoredObject{
		Address: address,
		Name:    name,
		Size:    size,
	}, nil
}

// Fetch reads stored content back out of MFS
func (b *MFSBackend) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.HasSuffix(name, "/") {
		return nil, fmt.Errorf("invalid stored name: %q", name)
	}

	readURL := fmt.Sprintf("%s/files/read?arg=%s",
		b.apiBaseURL, url.QueryEscape(b.basePath+"/"+name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, readURL, strings.NewReader(""))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("MFS read request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("MFS read failed: %s", resp.Status)
	}

	return resp.Body, nil
}

// Remove deletes stored content from MFS
func (b *MFSBackend) Remove(ctx context.Context, name string) error {
	rmURL := fmt.Sprintf("%s/files/rm?arg=%s",
		b.apiBaseURL, url.QueryEscape(b.basePath+"/"+name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rmURL, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("MFS rm request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("MFS rm failed: %s", resp.Status)
	}

	return nil
}

func (b *MFSBackend) stat(ctx context.Context, mfsPath string) (string, error) {
	statURL := fmt.Sprintf("%s/files/stat?arg=%s", b.apiBaseURL, url.QueryEscape(mfsPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, statURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("MFS stat request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("MFS stat failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read MFS stat response: %w", err)
	}

	hash := extractHash(string(body))
	if hash == "" {
		return "", errors.New("MFS stat response carries no hash")
	}
	return hash, nil
}

// extractHash pulls the value of the "Hash" key out of the node's small
// JSON stat document by substring scan.
func extractHash(body string) string {
	const key = `"Hash":"`
	start := strings.Index(body, key)
	if start < 0 {
		return ""
	}
	start += len(key)
	end := strings.Index(body[start:], `"`)
	if end < 0 {
		return ""
	}
	return body[start : start+end]
}
