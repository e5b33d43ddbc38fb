package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"finance/internal/core"
	"finance/internal/ports"
)

// AuthService registers users and verifies their credentials. Passwords are
// stored only as bcrypt hashes, which carry their own salt.
type AuthService struct {
	users ports.UserStore
	cost  int
}

func NewAuthService(users ports.UserStore) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Register creates a user. It does not start a session.
func (s *AuthService) Register(ctx context.Context, email, password string) (int64, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		return 0, &core.ValidationError{Msg: "Email and password are required"}
	}
	if utf8.RuneCountInString(email) > core.MaxEmailLength {
		return 0, &core.ValidationError{Field: "email", Msg: "email too long (max 120 characters)"}
	}

	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return 0, core.ErrDuplicateEmail
	} else if !errors.Is(err, core.ErrNotFound) {
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, &core.ValidationError{Field: "password", Msg: "password too long (max 72 bytes)"}
		}
		return 0, fmt.Errorf("hash password: %w", err)
	}

	// The unique index still decides races between concurrent registrations.
	id, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return 0, err
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered",
		"user_id", id,
		"component", "auth",
		"operation", "create")
	return id, nil
}

// Verify returns the user matching email and password, or
// core.ErrInvalidCredentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Verify(ctx context.Context, email, password string) (core.User, error) {
	user, err := s.users.UserByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Password mismatch",
			"user_id", user.ID,
			"component", "auth",
			"operation", "validate")
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}

// UserByID reloads a user for an existing session.
func (s *AuthService) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.users.UserByID(ctx, id)
}
