package domain

import (
	"fmt"
	"strings"
	"time"
)

const userNameMaxLength = 200

type User struct {
	ID           string
	Name         string
	Email        string // normalized, unique
	PasswordHash string // argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds a user with a normalized email. The caller supplies the ID
// and the already-hashed password.
func NewUser(id, name, email, passwordHash string, now time.Time) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("%w: name must not be blank", ErrValidation)
	}
	if len(name) > userNameMaxLength {
		return User{}, fmt.Errorf("%w: name must not exceed %d characters", ErrValidation, userNameMaxLength)
	}
	if passwordHash == "" {
		return User{}, fmt.Errorf("%w: password hash must not be empty", ErrValidation)
	}

	normalized, err := NormalizeEmail(email)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           id,
		Name:         name,
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
