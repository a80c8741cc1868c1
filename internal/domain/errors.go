package domain

import (
	"errors"
	"fmt"
)

// Error is a business failure with a stable code and a default message.
// Call sites wrap a kind with Errorf to add context; errors.Is still
// matches the kind through the wrap chain.
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

// Errorf derives a new error of the same kind with a contextual message.
func Errorf(kind *Error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    kind.Code,
		Message: fmt.Sprintf(format, args...),
		err:     kind,
	}
}

// Wrap derives a new error of the same kind carrying an underlying cause.
func Wrap(kind *Error, cause error) *Error {
	return &Error{
		Code:    kind.Code,
		Message: fmt.Sprintf("%s: %v", kind.Message, cause),
		err:     fmt.Errorf("%w: %w", kind, cause),
	}
}

// AsError extracts the typed business error from an error chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Error kinds. Codes are stable; messages are defaults.
var (
	ErrDuplicateUsername    = &Error{Code: "USER_001", Message: "username already exists"}
	ErrDuplicateEmail       = &Error{Code: "USER_002", Message: "email already exists"}
	ErrUpdateTargetNotFound = &Error{Code: "USER_003", Message: "user to update not found"}
	ErrEmailUpdateForbidden = &Error{Code: "USER_004", Message: "email cannot be updated"}
	ErrInvalidUpdateField   = &Error{Code: "USER_005", Message: "field cannot be updated"}

	ErrUserNotFound    = &Error{Code: "AUTH_001", Message: "no account with that email"}
	ErrInvalidPassword = &Error{Code: "AUTH_002", Message: "password does not match"}

	ErrOwnerNotFound       = &Error{Code: "CAPSULE_001", Message: "owner not found"}
	ErrMetadataNotFound    = &Error{Code: "CAPSULE_002", Message: "metadata not found"}
	ErrUploadFailed        = &Error{Code: "CAPSULE_003", Message: "upload failed"}
	ErrAccessDenied        = &Error{Code: "CAPSULE_004", Message: "access denied"}
	ErrFileNotFound        = &Error{Code: "CAPSULE_005", Message: "stored file not found"}
	ErrContentDeleteFailed = &Error{Code: "CAPSULE_006", Message: "failed to delete stored content"}

	ErrInvalidInput = &Error{Code: "COMMON_001", Message: "invalid input value"}
	ErrInternal     = &Error{Code: "COMMON_999", Message: "internal server error"}
)
