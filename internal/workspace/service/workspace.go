package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/idx"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

type WorkspaceService struct {
	Store store.Store
}

// CreateWorkspace creates a team workspace with the caller as its active
// owner.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, userID, name, description string) (domain.Workspace, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Workspace{}, ErrUserNotFound
		}
		return domain.Workspace{}, err
	}

	now := time.Now().UTC()
	ws, err := domain.NewWorkspace(idx.New().String(), name, description, now)
	if err != nil {
		return domain.Workspace{}, err
	}
	owner := domain.NewOwner(idx.New().String(), ws, userID, now)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Workspaces().CreateWorkspace(ctx, ws); err != nil {
			return err
		}
		return tx.Members().CreateMember(ctx, owner)
	})
	if err != nil {
		log.Error("failed to create workspace", slog.Any("error", err))
		return domain.Workspace{}, err
	}

	log.Info("workspace created",
		slog.String("workspace_id", ws.ID),
		slog.String("owner_user_id", userID),
	)
	return ws, nil
}

// GetWorkspace returns a workspace the caller belongs to. Membership in any
// status is enough to view it.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, userID, workspaceID string) (domain.Workspace, error) {
	ws, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Workspace{}, ErrWorkspaceNotFound
		}
		return domain.Workspace{}, err
	}
	if _, err := requireMember(ctx, s.Store, workspaceID, userID); err != nil {
		return domain.Workspace{}, err
	}
	return ws, nil
}

// RenameWorkspace updates name and description. Owner only.
func (s *WorkspaceService) RenameWorkspace(ctx context.Context, userID, workspaceID, name, description string) (domain.Workspace, error) {
	ws, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Workspace{}, ErrWorkspaceNotFound
		}
		return domain.Workspace{}, err
	}
	if _, err := requireActiveOwner(ctx, s.Store, workspaceID, userID); err != nil {
		return domain.Workspace{}, err
	}

	now := time.Now().UTC()
	if err := ws.Rename(name, description, now); err != nil {
		return domain.Workspace{}, err
	}
	if err := s.Store.Workspaces().UpdateWorkspace(ctx, ws.ID, ws.Name, ws.Description, now); err != nil {
		return domain.Workspace{}, err
	}
	return ws, nil
}

// DeleteWorkspace soft-deletes a workspace. Owner only, and every other
// member must already have left or been removed.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	log := slogx.FromContext(ctx)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		ws, err := tx.Workspaces().GetWorkspaceByID(ctx, workspaceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrWorkspaceNotFound
			}
			return err
		}
		if _, err := requireActiveOwner(ctx, tx, workspaceID, userID); err != nil {
			return err
		}

		active, err := tx.Members().CountActiveMembers(ctx, workspaceID)
		if err != nil {
			return err
		}
		if err := ws.EnsureDeletable(active); err != nil {
			return err
		}

		if err := tx.Workspaces().MarkWorkspaceDeleted(ctx, workspaceID, time.Now().UTC()); err != nil {
			return err
		}
		log.Info("workspace deleted", slog.String("workspace_id", workspaceID))
		return nil
	})
}

// ListMembers returns the full membership roster. Any member may view it.
func (s *WorkspaceService) ListMembers(ctx context.Context, userID, workspaceID string) ([]domain.Member, error) {
	if _, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	if _, err := requireMember(ctx, s.Store, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.Store.Members().ListMembers(ctx, workspaceID)
}

// LeaveWorkspace marks the caller's own membership LEFT. Owners cannot
// leave; they delete the workspace instead.
func (s *WorkspaceService) LeaveWorkspace(ctx context.Context, userID, workspaceID string) error {
	member, err := requireMember(ctx, s.Store, workspaceID, userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := member.Leave(now); err != nil {
		return err
	}
	return s.Store.Members().UpdateMemberStatus(ctx, member.ID, member.Status, now)
}

// KickMember removes another member. Owner only; the owner itself cannot be
// kicked.
func (s *WorkspaceService) KickMember(ctx context.Context, userID, workspaceID, memberID string) error {
	log := slogx.FromContext(ctx)

	if _, err := requireActiveOwner(ctx, s.Store, workspaceID, userID); err != nil {
		return err
	}

	member, err := s.Store.Members().GetMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if member.WorkspaceID != workspaceID {
		return ErrMemberNotFound
	}
	now := time.Now().UTC()
	if err := member.Kick(now); err != nil {
		return err
	}
	if err := s.Store.Members().UpdateMemberStatus(ctx, member.ID, member.Status, now); err != nil {
		return err
	}
	log.Info("member kicked",
		slog.String("workspace_id", workspaceID),
		slog.String("member_id", memberID),
	)
	return nil
}

func requireMember(ctx context.Context, st store.Store, workspaceID, userID string) (domain.Member, error) {
	member, err := st.Members().GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Member{}, fmt.Errorf("%w: not a workspace member", domain.ErrAccessDenied)
		}
		return domain.Member{}, err
	}
	return member, nil
}

func requireActiveOwner(ctx context.Context, st store.Store, workspaceID, userID string) (domain.Member, error) {
	member, err := requireMember(ctx, st, workspaceID, userID)
	if err != nil {
		return domain.Member{}, err
	}
	if !member.IsOwner() || !member.IsActive() {
		return domain.Member{}, fmt.Errorf("%w: requires the active workspace owner", domain.ErrAccessDenied)
	}
	return member, nil
}
