package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsulekeep/capsule-server/internal/api"
	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/repository/memory"
	"github.com/capsulekeep/capsule-server/internal/service"
	memorystorage "github.com/capsulekeep/capsule-server/internal/storage/memory"
)

// envelope mirrors the uniform response shape
type envelope struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	userRepo := memory.NewUserRepository()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	userService := service.NewUserService(userRepo, tokens)
	contentService := service.NewContentService(
		memory.NewMetadataRepository(), userRepo, memorystorage.NewMemoryBackend())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/users", api.NewUserHandler(userService, tokens).Routes())
		r.Mount("/content", api.NewContentHandler(contentService, tokens).Routes())
	})
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeErrorData(t *testing.T, rec *httptest.ResponseRecorder) errorData {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Error)
	var e errorData
	require.NoError(t, json.Unmarshal(env.Data, &e))
	return e
}

func registerUser(t *testing.T, r chi.Router, username, email, password string) {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func loginUser(t *testing.T, r chi.Router, email, password string) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestRegisterEndpoint(t *testing.T) {
	r := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Error)
	var user struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotContains(t, string(env.Data), "password")

	t.Run("duplicate username", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/users/register", "", map[string]string{
			"username": "alice", "email": "other@example.com", "password": "pw",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "USER_001", decodeErrorData(t, rec).Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/users/register", "", map[string]string{
			"username": "bob",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "alice", "alice@example.com", "pw")

	t.Run("success", func(t *testing.T) {
		token := loginUser(t, r, "alice@example.com", "pw")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/users/login", "", map[string]string{
			"email": "alice@example.com", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_002", decodeErrorData(t, rec).Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/users/login", "", map[string]string{
			"email": "nobody@example.com", "password": "pw",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "AUTH_001", decodeErrorData(t, rec).Code)
	})
}

func TestUpdateEndpoint(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "alice", "alice@example.com", "pw")
	token := loginUser(t, r, "alice@example.com", "pw")

	t.Run("username change", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPut, "/api/users/update", token, map[string]string{
			"username": "alice2",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		env := decodeEnvelope(t, rec)
		var user struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &user))
		assert.Equal(t, "alice2", user.Username)
	})

	t.Run("email change forbidden", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPut, "/api/users/update", token, map[string]string{
			"email": "new@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "USER_004", decodeErrorData(t, rec).Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPut, "/api/users/update", token, map[string]string{
			"role": "admin",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		e := decodeErrorData(t, rec)
		assert.Equal(t, "USER_005", e.Code)
		assert.Contains(t, e.Message, "role")
	})

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPut, "/api/users/update", "", map[string]string{
			"username": "x",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestResponseEnvelopeShape(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "alice", "alice@example.com", "pw")

	rec := doJSON(t, r, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "bad",
	})

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "error")
	require.Contains(t, raw, "data")
	assert.Equal(t, "true", string(raw["error"]))
}
