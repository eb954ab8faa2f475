package domain

import (
	"fmt"
	"time"
)

// InviteCodeUsage is the idempotent ledger recording which membership was
// created by redeeming which code. Unique on the workspace member, so a
// retried accept inserts at most one row; the unique constraint is the
// backstop for the check-then-insert race.
type InviteCodeUsage struct {
	ID                string
	InviteCodeID      string
	WorkspaceMemberID string
	UsedAt            time.Time
}

// NewInviteCodeUsage records a redemption. Code and member must belong to
// the same workspace.
func NewInviteCodeUsage(id string, code InviteCode, member Member, now time.Time) (InviteCodeUsage, error) {
	if code.WorkspaceID != member.WorkspaceID {
		return InviteCodeUsage{}, fmt.Errorf("%w: invite code and member must belong to the same workspace", ErrValidation)
	}
	return InviteCodeUsage{
		ID:                id,
		InviteCodeID:      code.ID,
		WorkspaceMemberID: member.ID,
		UsedAt:            now,
	}, nil
}
