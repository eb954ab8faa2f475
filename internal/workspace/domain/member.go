package domain

import (
	"fmt"
	"time"
)

type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleMember MemberRole = "MEMBER"
)

type MemberStatus string

const (
	MemberActive MemberStatus = "ACTIVE"
	MemberLeft   MemberStatus = "LEFT"
	MemberKicked MemberStatus = "KICKED"
)

// Member ties a user to a workspace. Unique per (workspace, user); a user
// who leaves and rejoins keeps the same row, flipping status back to ACTIVE.
type Member struct {
	ID              string
	WorkspaceID     string
	UserID          string
	Role            MemberRole
	Status          MemberStatus
	JoinedAt        time.Time
	StatusChangedAt time.Time
}

// NewOwner creates the owning membership minted together with a workspace.
func NewOwner(id string, workspace Workspace, userID string, now time.Time) Member {
	return Member{
		ID:              id,
		WorkspaceID:     workspace.ID,
		UserID:          userID,
		Role:            RoleOwner,
		Status:          MemberActive,
		JoinedAt:        now,
		StatusChangedAt: now,
	}
}

// NewMember creates a regular membership from invitation acceptance.
// Personal workspaces never gain members.
func NewMember(id string, workspace Workspace, userID string, now time.Time) (Member, error) {
	if workspace.Personal {
		return Member{}, fmt.Errorf("%w: cannot modify members of a personal workspace", ErrPolicyViolation)
	}
	return Member{
		ID:              id,
		WorkspaceID:     workspace.ID,
		UserID:          userID,
		Role:            RoleMember,
		Status:          MemberActive,
		JoinedAt:        now,
		StatusChangedAt: now,
	}, nil
}

// Leave marks the member as voluntarily departed. Owners cannot leave; the
// workspace must always hold exactly one active owner.
func (m *Member) Leave(now time.Time) error {
	if m.Role == RoleOwner {
		return fmt.Errorf("%w: workspace owner cannot leave directly", ErrPolicyViolation)
	}
	if m.Status != MemberActive {
		return fmt.Errorf("%w: only active members can leave", ErrMemberState)
	}
	m.Status = MemberLeft
	m.StatusChangedAt = now
	return nil
}

// Kick removes the member by owner action. The owner cannot be kicked.
func (m *Member) Kick(now time.Time) error {
	if m.Role == RoleOwner {
		return fmt.Errorf("%w: workspace owner cannot be removed", ErrPolicyViolation)
	}
	if m.Status != MemberActive {
		return fmt.Errorf("%w: only active members can be kicked", ErrMemberState)
	}
	m.Status = MemberKicked
	m.StatusChangedAt = now
	return nil
}

// Restore reactivates a previously departed membership on re-join.
func (m *Member) Restore(now time.Time) error {
	if m.Status == MemberActive {
		return fmt.Errorf("%w: member is already active", ErrMemberState)
	}
	m.Status = MemberActive
	m.StatusChangedAt = now
	return nil
}

func (m *Member) IsActive() bool { return m.Status == MemberActive }
func (m *Member) IsOwner() bool  { return m.Role == RoleOwner }
