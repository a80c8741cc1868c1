// Package auth issues and verifies the bearer tokens the API runs on.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// Identity is the caller identity carried inside a verified token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

// TokenIssuer issues HS256 bearer tokens and exposes the chi middleware
// that verifies them on inbound requests.
type TokenIssuer struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// NewTokenIssuer creates a token issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		ja:  jwtauth.New("HS256", []byte(secret), nil),
		ttl: ttl,
	}
}

// Issue creates a signed token carrying the subject identity.
func (t *TokenIssuer) Issue(userID uuid.UUID, username, email string) (string, error) {
	claims := map[string]interface{}{
		"user_id":  userID.String(),
		"username": username,
		"email":    email,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, t.ttl)

	_, tokenString, err := t.ja.Encode(claims)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Verifier returns middleware that extracts and validates the bearer token.
func (t *TokenIssuer) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(t.ja)
}

// Authenticator rejects requests whose token is missing or invalid.
func Authenticator(next http.Handler) http.Handler {
	return jwtauth.Authenticator(next)
}

// FromContext reads the caller identity out of a verified request context.
func FromContext(ctx context.Context) (*Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	id := &Identity{}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["user_id"].(string); ok {
		userID, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		id.UserID = userID
	}
	return id, nil
}
