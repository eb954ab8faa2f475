package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

type fixture struct {
	owner     domain.User
	workspace domain.Workspace
	member    domain.Member
	code      domain.InviteCode
}

func seedWorkspace(t *testing.T, s *Store, now time.Time) fixture {
	t.Helper()
	ctx := context.Background()

	owner, err := domain.NewUser(idx.New().String(), "Alice", "alice@example.com", "hash", now)
	require.NoError(t, err)
	require.NoError(t, s.Users().CreateUser(ctx, owner))

	ws, err := domain.NewWorkspace(idx.New().String(), "Engineering", "", now)
	require.NoError(t, err)
	require.NoError(t, s.Workspaces().CreateWorkspace(ctx, ws))

	member := domain.NewOwner(idx.New().String(), ws, owner.ID, now)
	require.NoError(t, s.Members().CreateMember(ctx, member))

	code, err := domain.NewInviteCode(idx.New().String(), ws, member, "AAAAbbbb11112222", 7, now)
	require.NoError(t, err)
	require.NoError(t, s.InviteCodes().CreateInviteCode(ctx, code))

	return fixture{owner: owner, workspace: ws, member: member, code: code}
}

func seedInvitation(t *testing.T, s *Store, f fixture, email string, now time.Time) domain.Invitation {
	t.Helper()

	inv, err := domain.NewInvitation(idx.New().String(), f.code, f.owner.ID, email, now)
	require.NoError(t, err)
	require.NoError(t, s.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func TestMigrationsApplyTwice(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestUsersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u, err := domain.NewUser(idx.New().String(), "Alice", "Alice@Example.com ", "hash", now)
	require.NoError(t, err)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("by id", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", got.Email)
		require.Equal(t, u.Name, got.Name)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := domain.NewUser(idx.New().String(), "Other", "alice@example.com", "hash", now)
		require.NoError(t, err)
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWorkspaceSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	require.NoError(t, s.Workspaces().MarkWorkspaceDeleted(ctx, f.workspace.ID, now))

	_, err := s.Workspaces().GetWorkspaceByID(ctx, f.workspace.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting twice finds no live row.
	require.ErrorIs(t, s.Workspaces().MarkWorkspaceDeleted(ctx, f.workspace.ID, now), store.ErrNotFound)
}

func TestMemberUniquePerWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	dup := domain.Member{
		ID:              idx.New().String(),
		WorkspaceID:     f.workspace.ID,
		UserID:          f.owner.ID,
		Role:            domain.RoleMember,
		Status:          domain.MemberActive,
		JoinedAt:        now,
		StatusChangedAt: now,
	}
	require.ErrorIs(t, s.Members().CreateMember(ctx, dup), store.ErrAlreadyExists)
}

func TestListActiveMemberEmails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	left, err := domain.NewUser(idx.New().String(), "Bob", "bob@example.com", "hash", now)
	require.NoError(t, err)
	require.NoError(t, s.Users().CreateUser(ctx, left))

	m, err := domain.NewMember(idx.New().String(), f.workspace, left.ID, now)
	require.NoError(t, err)
	m.Status = domain.MemberLeft
	require.NoError(t, s.Members().CreateMember(ctx, m))

	emails, err := s.Members().ListActiveMemberEmails(ctx, f.workspace.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice@example.com"}, emails)

	count, err := s.Members().CountActiveMembers(ctx, f.workspace.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestInviteCodeCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	clash, err := domain.NewInviteCode(idx.New().String(), f.workspace, f.member, f.code.Code, 7, now)
	require.NoError(t, err)
	require.ErrorIs(t, s.InviteCodes().CreateInviteCode(ctx, clash), store.ErrAlreadyExists)

	got, err := s.InviteCodes().GetInviteCodeByCode(ctx, f.code.Code)
	require.NoError(t, err)
	require.Equal(t, f.code.ID, got.ID)
}

func TestClaimForSendingExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)
	inv := seedInvitation(t, s, f, "bob@example.com", now)

	claimed, err := s.Invitations().ClaimForSending(ctx, inv.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	// A second delivery of the same message must lose the claim.
	claimed, err = s.Invitations().ClaimForSending(ctx, inv.ID, now)
	require.NoError(t, err)
	require.False(t, claimed)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSending, got.Status)
}

func TestInvitationDeliveryMarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	t.Run("sent", func(t *testing.T) {
		inv := seedInvitation(t, s, f, "sent@example.com", now)
		_, err := s.Invitations().ClaimForSending(ctx, inv.ID, now)
		require.NoError(t, err)
		require.NoError(t, s.Invitations().MarkSent(ctx, inv.ID, now))

		got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusSent, got.Status)
		require.NotNil(t, got.SentAt)
	})

	t.Run("failed", func(t *testing.T) {
		inv := seedInvitation(t, s, f, "failed@example.com", now)
		_, err := s.Invitations().ClaimForSending(ctx, inv.ID, now)
		require.NoError(t, err)
		require.NoError(t, s.Invitations().MarkFailed(ctx, inv.ID))

		// MarkSent requires SENDING, so it must miss now.
		require.ErrorIs(t, s.Invitations().MarkSent(ctx, inv.ID, now), store.ErrNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		inv := seedInvitation(t, s, f, "late@example.com", now)
		_, err := s.Invitations().ClaimForSending(ctx, inv.ID, now)
		require.NoError(t, err)
		require.NoError(t, s.Invitations().MarkCancelled(ctx, inv.ID, now))

		got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusCancelled, got.Status)
		require.NotNil(t, got.ExpiredAt)
	})

	t.Run("accepted from pending", func(t *testing.T) {
		inv := seedInvitation(t, s, f, "eager@example.com", now)
		require.NoError(t, s.Invitations().MarkAccepted(ctx, inv.ID, now))

		// Terminal: a worker claim must no longer succeed.
		claimed, err := s.Invitations().ClaimForSending(ctx, inv.ID, now)
		require.NoError(t, err)
		require.False(t, claimed)
	})
}

func TestExpirePendingOrSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	pending := seedInvitation(t, s, f, "bob@example.com", now)

	sent := seedInvitation(t, s, f, "bob@example.com", now)
	_, err := s.Invitations().ClaimForSending(ctx, sent.ID, now)
	require.NoError(t, err)
	require.NoError(t, s.Invitations().MarkSent(ctx, sent.ID, now))

	sending := seedInvitation(t, s, f, "bob@example.com", now)
	_, err = s.Invitations().ClaimForSending(ctx, sending.ID, now)
	require.NoError(t, err)

	other := seedInvitation(t, s, f, "carol@example.com", now)

	n, err := s.Invitations().ExpirePendingOrSent(ctx, f.workspace.ID, "bob@example.com", now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	for id, want := range map[string]domain.InvitationStatus{
		pending.ID: domain.StatusExpired,
		sent.ID:    domain.StatusExpired,
		sending.ID: domain.StatusSending,
		other.ID:   domain.StatusPending,
	} {
		got, err := s.Invitations().GetInvitationByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, got.Status, "invitation %s", id)
	}
}

func TestListPendingOrSentEmails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	seedInvitation(t, s, f, "bob@example.com", now)
	done := seedInvitation(t, s, f, "carol@example.com", now)
	require.NoError(t, s.Invitations().MarkAccepted(ctx, done.ID, now))

	emails, err := s.Invitations().ListPendingOrSentEmails(ctx, f.workspace.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"bob@example.com"}, emails)
}

func TestRecoverySweeps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	t.Run("stale pending", func(t *testing.T) {
		old := seedInvitation(t, s, f, "old@example.com", now.Add(-time.Hour))
		seedInvitation(t, s, f, "fresh@example.com", now)

		stale, err := s.Invitations().ListStalePending(ctx, now.Add(-10*time.Minute))
		require.NoError(t, err)
		require.Len(t, stale, 1)
		require.Equal(t, old.ID, stale[0].ID)
	})

	t.Run("stale sending", func(t *testing.T) {
		inv := seedInvitation(t, s, f, "wedged@example.com", now)
		claimed, err := s.Invitations().ClaimForSending(ctx, inv.ID, now.Add(-time.Hour))
		require.NoError(t, err)
		require.True(t, claimed)

		n, err := s.Invitations().FailStaleSending(ctx, now.Add(-10*time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusFailed, got.Status)
	})
}

func TestGetInvitationByCodeAndEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	first := seedInvitation(t, s, f, "bob@example.com", now.Add(-time.Minute))
	require.NoError(t, s.Invitations().MarkAccepted(ctx, first.ID, now))
	latest := seedInvitation(t, s, f, "bob@example.com", now)

	got, err := s.Invitations().GetInvitationByCodeAndEmail(ctx, f.code.Code, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, latest.ID, got.ID)

	_, err = s.Invitations().GetInvitationByCodeAndEmail(ctx, f.code.Code, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsageLedgerUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	f := seedWorkspace(t, s, now)

	usage, err := domain.NewInviteCodeUsage(idx.New().String(), f.code, f.member, now)
	require.NoError(t, err)
	require.NoError(t, s.InviteCodeUsages().CreateUsage(ctx, usage))

	again, err := domain.NewInviteCodeUsage(idx.New().String(), f.code, f.member, now)
	require.NoError(t, err)
	require.ErrorIs(t, s.InviteCodeUsages().CreateUsage(ctx, again), store.ErrAlreadyExists)

	exists, err := s.InviteCodeUsages().ExistsForMember(ctx, f.member.ID)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u, err := domain.NewUser(idx.New().String(), "Alice", "alice@example.com", "hash", now)
	require.NoError(t, err)

	wantErr := context.Canceled
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u, err := domain.NewUser(idx.New().String(), "Alice", "alice@example.com", "hash", now)
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}
