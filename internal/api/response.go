package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/capsulekeep/capsule-server/internal/domain"
)

// Response is the uniform envelope every endpoint answers with: Error
// reports whether the call failed, Data carries the payload or the error.
type Response struct {
	Error bool        `json:"error"`
	Data  interface{} `json:"data"`
}

// ErrorPayload is the Data value of a failed response.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, Response{Error: false, Data: data})
}

// Fail translates an error into an HTTP status and a failed envelope.
// Business errors surface their code and message; anything else is logged
// in full and answered with a generic internal error.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := domain.AsError(err)
	if !ok {
		slog.Error("unexpected error", "method", r.Method, "path", r.URL.Path, "err", err)
		e = domain.ErrInternal
	}

	render.Status(r, statusFor(e.Code))
	render.JSON(w, r, Response{
		Error: true,
		Data:  ErrorPayload{Code: e.Code, Message: e.Message},
	})
}

func statusFor(code string) int {
	switch code {
	case domain.ErrDuplicateUsername.Code, domain.ErrDuplicateEmail.Code:
		return http.StatusConflict
	case domain.ErrUserNotFound.Code, domain.ErrUpdateTargetNotFound.Code,
		domain.ErrOwnerNotFound.Code, domain.ErrMetadataNotFound.Code,
		domain.ErrFileNotFound.Code:
		return http.StatusNotFound
	case domain.ErrInvalidPassword.Code:
		return http.StatusUnauthorized
	case domain.ErrAccessDenied.Code:
		return http.StatusForbidden
	case domain.ErrEmailUpdateForbidden.Code, domain.ErrInvalidUpdateField.Code,
		domain.ErrInvalidInput.Code:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
