package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Username and email are each
// globally unique; email is immutable after registration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
