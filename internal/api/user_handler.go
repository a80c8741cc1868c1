package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/service"
)

// UserHandler handles HTTP requests for user accounts
type UserHandler struct {
	users  *service.UserService
	tokens *auth.TokenIssuer
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, tokens *auth.TokenIssuer) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
	}
}

// Routes returns the routes for user accounts
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.tokens.Verifier())
		r.Use(auth.Authenticator)
		r.Put("/update", h.Update)
	})

	return r
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response body for a successful login
type LoginResponse struct {
	Token string `json:"token"`
}

// Register creates a new account
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "username, email and password are required"))
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, user)
}

// Login checks credentials and returns a bearer token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid request body"))
		return
	}

	_, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, LoginResponse{Token: token})
}

// Update applies a field-update map to the caller's own account. The
// account is identified by the email inside the bearer token.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "missing caller identity"))
		return
	}

	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		Fail(w, r, domain.Errorf(domain.ErrInvalidInput, "invalid request body"))
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity.Email, updates)
	if err != nil {
		Fail(w, r, err)
		return
	}

	OK(w, r, user)
}
