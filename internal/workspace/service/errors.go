package service

import (
	"errors"
	"fmt"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrCodeNotFound      = errors.New("invite code not found")

	// ErrNotInvited is a validation failure: the code exists but no
	// invitation targets the caller's email.
	ErrNotInvited = fmt.Errorf("%w: no invitation exists for this email", domain.ErrValidation)

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
