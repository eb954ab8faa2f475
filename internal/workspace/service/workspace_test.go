package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

// join adds a user to a workspace by running the full invite/accept flow.
func (e *env) join(t *testing.T, ownerID string, workspaceID string, u domain.User) AcceptResult {
	t.Helper()
	ctx := context.Background()

	res, err := e.invitations.CreateInvitations(ctx, ownerID, workspaceID, []string{u.Email}, 0)
	require.NoError(t, err)
	require.Len(t, res.Invitations, 1)

	accepted, err := e.invitations.AcceptInvitation(ctx, u.ID, res.InviteCode.Code)
	require.NoError(t, err)
	return accepted
}

func TestRenameWorkspace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "Alice", "alice@example.com")
	ws := e.createWorkspace(t, owner.ID, "Engineering")

	t.Run("owner renames", func(t *testing.T) {
		got, err := e.workspaces.RenameWorkspace(ctx, owner.ID, ws.ID, "Platform", "all things infra")
		require.NoError(t, err)
		require.Equal(t, "Platform", got.Name)

		reloaded, err := e.workspaces.GetWorkspace(ctx, owner.ID, ws.ID)
		require.NoError(t, err)
		require.Equal(t, "Platform", reloaded.Name)
		require.Equal(t, "all things infra", reloaded.Description)
	})

	t.Run("member cannot rename", func(t *testing.T) {
		bob := e.register(t, "Bob", "bob@example.com")
		e.join(t, owner.ID, ws.ID, bob)

		_, err := e.workspaces.RenameWorkspace(ctx, bob.ID, ws.ID, "Bob's", "")
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("outsider cannot view", func(t *testing.T) {
		eve := e.register(t, "Eve", "eve@example.com")
		_, err := e.workspaces.GetWorkspace(ctx, eve.ID, ws.ID)
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestDeleteWorkspace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "Alice", "alice@example.com")
	ws := e.createWorkspace(t, owner.ID, "Engineering")
	bob := e.register(t, "Bob", "bob@example.com")
	e.join(t, owner.ID, ws.ID, bob)

	t.Run("blocked while members remain", func(t *testing.T) {
		err := e.workspaces.DeleteWorkspace(ctx, owner.ID, ws.ID)
		require.ErrorIs(t, err, domain.ErrPolicyViolation)
	})

	t.Run("allowed once alone", func(t *testing.T) {
		require.NoError(t, e.workspaces.LeaveWorkspace(ctx, bob.ID, ws.ID))
		require.NoError(t, e.workspaces.DeleteWorkspace(ctx, owner.ID, ws.ID))

		_, err := e.workspaces.GetWorkspace(ctx, owner.ID, ws.ID)
		require.ErrorIs(t, err, ErrWorkspaceNotFound)
	})
}

func TestLeaveWorkspace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "Alice", "alice@example.com")
	ws := e.createWorkspace(t, owner.ID, "Engineering")

	t.Run("owner cannot leave", func(t *testing.T) {
		err := e.workspaces.LeaveWorkspace(ctx, owner.ID, ws.ID)
		require.ErrorIs(t, err, domain.ErrPolicyViolation)
	})

	t.Run("member leaves once", func(t *testing.T) {
		bob := e.register(t, "Bob", "bob@example.com")
		e.join(t, owner.ID, ws.ID, bob)

		require.NoError(t, e.workspaces.LeaveWorkspace(ctx, bob.ID, ws.ID))
		require.ErrorIs(t, e.workspaces.LeaveWorkspace(ctx, bob.ID, ws.ID), domain.ErrMemberState)
	})
}

func TestKickMember(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "Alice", "alice@example.com")
	ws := e.createWorkspace(t, owner.ID, "Engineering")
	bob := e.register(t, "Bob", "bob@example.com")
	joined := e.join(t, owner.ID, ws.ID, bob)

	t.Run("member cannot kick", func(t *testing.T) {
		err := e.workspaces.KickMember(ctx, bob.ID, ws.ID, joined.MemberID)
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("owner kicks", func(t *testing.T) {
		require.NoError(t, e.workspaces.KickMember(ctx, owner.ID, ws.ID, joined.MemberID))

		members, err := e.workspaces.ListMembers(ctx, owner.ID, ws.ID)
		require.NoError(t, err)
		for _, m := range members {
			if m.ID == joined.MemberID {
				require.Equal(t, domain.MemberKicked, m.Status)
			}
		}
	})

	t.Run("owner cannot be kicked", func(t *testing.T) {
		members, err := e.workspaces.ListMembers(ctx, owner.ID, ws.ID)
		require.NoError(t, err)
		var ownerMemberID string
		for _, m := range members {
			if m.IsOwner() {
				ownerMemberID = m.ID
			}
		}
		require.NotEmpty(t, ownerMemberID)
		require.ErrorIs(t, e.workspaces.KickMember(ctx, owner.ID, ws.ID, ownerMemberID), domain.ErrPolicyViolation)
	})
}
