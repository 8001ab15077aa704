package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLen = 8

// User — владелец резюме, оптимизаций и писем. Все проверки доступа идут по ID.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository хранит аккаунты. Create возвращает ErrUserAlreadyExists
// при повторном email, GetByEmail возвращает ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
}

// TokenGenerator issues access tokens for an authenticated user.
type TokenGenerator interface {
	Generate(ctx context.Context, user User) (string, error)
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || password == "" {
		return ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}
