package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository"
)

// UserService handles registration, authentication and profile updates
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
	}
}

// Register creates a new account. Username and email must both be unused.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateUsername
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login checks the credentials and issues a bearer token
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// UpdateProfile applies a field-update map to the account with the given
// email. Only username and password may change; an email key always fails
// and any other key is rejected outright.
func (s *UserService) UpdateProfile(ctx context.Context, email string, updates map[string]string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUpdateTargetNotFound
		}
		return nil, err
	}

	// Email is immutable; reject before touching anything else so the
	// outcome does not depend on map iteration order.
	if _, ok := updates["email"]; ok {
		return nil, domain.ErrEmailUpdateForbidden
	}

	for key, value := range updates {
		switch key {
		case "username":
			if value != user.Username {
				existing, err := s.users.GetByUsername(ctx, value)
				if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
					return nil, err
				}
				if existing != nil && existing.ID != user.ID {
					return nil, domain.ErrDuplicateUsername
				}
			}
			user.Username = value
		case "password":
			hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			user.PasswordHash = string(hash)
		default:
			return nil, domain.Errorf(domain.ErrInvalidUpdateField, "field cannot be updated: %s", key)
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
