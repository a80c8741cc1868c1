package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/service"
)

// maxUploadMemory caps how much of a multipart upload is held in memory.
const maxUploadMemory = 32 << 20

// ContentHandler handles HTTP requests for capsule content
type ContentHandler struct {
	content *service.ContentService
	tokens  *auth.TokenIssuer
}

// NewContentHandler creates a new content handler
func NewContentHandler(content *service.ContentService, tokens *auth.TokenIssuer) *ContentHandler {
	return &ContentHandler{
		content: content,
		tokens:  tokens,
	}
}

// Routes returns the routes for capsule content. Everything requires a
// verified bearer token.
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.tokens.Verifier())
	r.Use(auth.Authenticator)

	r.Post("/upload", h.Upload)
	r.Get("/user", h.ListMine)
	r.Get("/download/{id}", h.Download)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/delete/{id}", h.Delete)

	return r
}

// Upload stores a multipart file together with its descriptive metadata
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "file part is required"))
		return
	}
	defer file.Close()

	var req service.UploadRequest
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid metadata part"))
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	metadata, err := h.content.Upload(r.Context(), file, header.Filename, contentType, req, identity.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, fmt.Sprintf("uploaded successfully. content address: %s", metadata.ContentAddress))
}

// Get retrieves a metadata record by ID
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.metadataID(w, r)
	if !ok {
		return
	}

	metadata, err := h.content.RetrieveMetadata(r.Context(), id)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, metadata)
}

// ListMine lists the caller's own metadata records
func (h *ContentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	list, err := h.content.ListByOwner(r.Context(), identity.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, list)
}

// Download streams the stored bytes back as an attachment
func (h *ContentHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	id, ok := h.metadataID(w, r)
	if !ok {
		return
	}

	data, metadata, err := h.content.Download(r.Context(), id, identity.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}

	contentType := metadata.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", metadata.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Update applies a field-update map to a metadata record
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	id, ok := h.metadataID(w, r)
	if !ok {
		return
	}

	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid request body"))
		return
	}

	summary, err := h.content.UpdateFields(r.Context(), id, updates, identity.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, summary)
}

// Delete removes a metadata record and its stored content
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	id, ok := h.metadataID(w, r)
	if !ok {
		return
	}

	if err := h.content.Delete(r.Context(), id, identity.UserID); err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, "metadata and stored content deleted successfully")
}

func (h *ContentHandler) metadataID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid metadata ID"))
		return uuid.Nil, false
	}
	return id, true
}
