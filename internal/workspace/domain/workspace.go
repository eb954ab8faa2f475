package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	workspaceNameMaxLength        = 100
	workspaceDescriptionMaxLength = 500
)

// Workspace is the tenant boundary. Membership lives in separate Member rows;
// the owner is derivable as the member holding RoleOwner.
type Workspace struct {
	ID          string
	Name        string
	Description string
	Personal    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

// NewWorkspace builds a team workspace.
func NewWorkspace(id, name, description string, now time.Time) (Workspace, error) {
	if err := validateWorkspaceName(name, description); err != nil {
		return Workspace{}, err
	}
	return Workspace{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: description,
		Personal:    false,
		CreatedAt:   now,
	}, nil
}

// NewPersonalWorkspace builds the single-member workspace every user gets on
// registration. It never accepts invitations or additional members.
func NewPersonalWorkspace(id string, now time.Time) Workspace {
	return Workspace{
		ID:          id,
		Name:        "Personal",
		Description: "Personal Workspace",
		Personal:    true,
		CreatedAt:   now,
	}
}

// Rename updates name and description.
func (w *Workspace) Rename(name, description string, now time.Time) error {
	if err := validateWorkspaceName(name, description); err != nil {
		return err
	}
	w.Name = strings.TrimSpace(name)
	w.Description = description
	w.UpdatedAt = &now
	return nil
}

// EnsureDeletable checks the soft-delete policy: personal workspaces are
// permanent, and a workspace with other active members cannot be torn down
// from under them.
func (w *Workspace) EnsureDeletable(activeMembers int) error {
	if w.Personal {
		return fmt.Errorf("%w: personal workspace cannot be deleted", ErrPolicyViolation)
	}
	if activeMembers > 1 {
		return fmt.Errorf("%w: cannot delete while other members remain active", ErrPolicyViolation)
	}
	return nil
}

// EnsureInvitesAllowed rejects invitation flows on personal workspaces.
func (w *Workspace) EnsureInvitesAllowed() error {
	if w.Personal {
		return fmt.Errorf("%w: personal workspace cannot invite members", ErrPolicyViolation)
	}
	return nil
}

func (w *Workspace) IsDeleted() bool { return w.DeletedAt != nil }

func validateWorkspaceName(name, description string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: workspace name must not be blank", ErrValidation)
	}
	if len(trimmed) > workspaceNameMaxLength {
		return fmt.Errorf("%w: workspace name must not exceed %d characters", ErrValidation, workspaceNameMaxLength)
	}
	if len(description) > workspaceDescriptionMaxLength {
		return fmt.Errorf("%w: workspace description must not exceed %d characters", ErrValidation, workspaceDescriptionMaxLength)
	}
	return nil
}
