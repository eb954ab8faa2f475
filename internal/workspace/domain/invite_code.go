package domain

import (
	"fmt"
	"time"
)

const (
	// Expiry bounds for invite codes, in days.
	DefaultExpirationDays = 7
	MinExpirationDays     = 1
	MaxExpirationDays     = 30

	// CodeLength is the fixed invite code length.
	CodeLength = 16
)

// InviteCode is a workspace-scoped shared secret gating entry. Immutable once
// created; expiry is computed from ExpiresAt rather than stored as a flag.
// Every create/resend batch mints a fresh code.
type InviteCode struct {
	ID          string
	WorkspaceID string
	CreatedBy   string // user ID of the owner who minted it
	Code        string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// ValidateExpirationDays checks the [MinExpirationDays, MaxExpirationDays]
// clamp.
func ValidateExpirationDays(days int) error {
	if days < MinExpirationDays {
		return fmt.Errorf("%w: expiration days must be at least %d", ErrValidation, MinExpirationDays)
	}
	if days > MaxExpirationDays {
		return fmt.Errorf("%w: expiration days must not exceed %d", ErrValidation, MaxExpirationDays)
	}
	return nil
}

// NewInviteCode builds a code for a workspace. The creator must be the
// workspace's current active owner, and personal workspaces never issue
// codes. The random code itself is generated by the caller so collision
// retries stay outside the constructor.
func NewInviteCode(id string, workspace Workspace, creator Member, code string, expiresInDays int, now time.Time) (InviteCode, error) {
	if err := workspace.EnsureInvitesAllowed(); err != nil {
		return InviteCode{}, err
	}
	if creator.WorkspaceID != workspace.ID || !creator.IsOwner() || !creator.IsActive() {
		return InviteCode{}, fmt.Errorf("%w: only the workspace owner can issue invitations", ErrAccessDenied)
	}
	if err := ValidateExpirationDays(expiresInDays); err != nil {
		return InviteCode{}, err
	}
	if err := validateCode(code); err != nil {
		return InviteCode{}, err
	}

	expiresAt := now.Add(time.Duration(expiresInDays) * 24 * time.Hour)
	if !expiresAt.After(now) {
		return InviteCode{}, fmt.Errorf("%w: expiresAt must be after createdAt", ErrValidation)
	}

	return InviteCode{
		ID:          id,
		WorkspaceID: workspace.ID,
		CreatedBy:   creator.UserID,
		Code:        code,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}, nil
}

// IsExpired reports whether the code has expired as of now. The boundary
// instant itself counts as expired.
func (c InviteCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// EnsureNotExpired returns ErrCodeExpired when the code is no longer usable.
func (c InviteCode) EnsureNotExpired(now time.Time) error {
	if c.IsExpired(now) {
		return ErrCodeExpired
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("%w: invite code must be exactly %d characters", ErrValidation, CodeLength)
	}
	for _, ch := range code {
		isAlnum := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if !isAlnum {
			return fmt.Errorf("%w: invite code must be alphanumeric", ErrValidation)
		}
	}
	return nil
}
