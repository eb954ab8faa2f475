package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/email"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/internal/workspace/store/drivers/sqlite"
	"github.com/teamspaceapp/teamspace/pkg/idx"
)

type fakeSender struct {
	sendFn func(ctx context.Context, to, subject, html string) (string, error)
	sent   []string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, html string) (string, error) {
	f.sent = append(f.sent, to)
	if f.sendFn != nil {
		return f.sendFn(ctx, to, subject, html)
	}
	return "msg_" + to, nil
}

type processorFixture struct {
	store     *sqlite.Store
	sender    *fakeSender
	processor *Processor
	workspace domain.Workspace
	code      domain.InviteCode
	owner     domain.User
}

func newProcessorFixture(t *testing.T, codeDays int) *processorFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	owner, err := domain.NewUser(idx.New().String(), "Alice", "alice@example.com", "hash", now)
	require.NoError(t, err)
	require.NoError(t, st.Users().CreateUser(ctx, owner))

	ws, err := domain.NewWorkspace(idx.New().String(), "Engineering", "", now)
	require.NoError(t, err)
	require.NoError(t, st.Workspaces().CreateWorkspace(ctx, ws))

	member := domain.NewOwner(idx.New().String(), ws, owner.ID, now)
	require.NoError(t, st.Members().CreateMember(ctx, member))

	code, err := domain.NewInviteCode(idx.New().String(), ws, member, "AAAAbbbb11112222", codeDays, now)
	require.NoError(t, err)
	require.NoError(t, st.InviteCodes().CreateInviteCode(ctx, code))

	sender := &fakeSender{}
	return &processorFixture{
		store:     st,
		sender:    sender,
		processor: NewProcessor(st, sender, email.NewLinkBuilder("https://app.teamspace.dev")),
		workspace: ws,
		code:      code,
		owner:     owner,
	}
}

func (f *processorFixture) newInvitation(t *testing.T, emailAddr string) domain.Invitation {
	t.Helper()
	inv, err := domain.NewInvitation(idx.New().String(), f.code, f.owner.ID, emailAddr, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.store.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func TestProcessorSends(t *testing.T) {
	f := newProcessorFixture(t, 7)
	inv := f.newInvitation(t, "bob@example.com")

	outcome, err := f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSent, outcome)
	require.Equal(t, []string{"bob@example.com"}, f.sender.sent)

	got, err := f.store.Invitations().GetInvitationByID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, got.Status)
	require.NotNil(t, got.SentAt)
}

func TestProcessorDuplicateDelivery(t *testing.T) {
	f := newProcessorFixture(t, 7)
	inv := f.newInvitation(t, "bob@example.com")

	outcome, err := f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSent, outcome)

	// Same ID dequeued again: the claim is lost, no second email.
	outcome, err = f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)
	require.Len(t, f.sender.sent, 1)
}

func TestProcessorSendFailure(t *testing.T) {
	f := newProcessorFixture(t, 7)
	f.sender.sendFn = func(context.Context, string, string, string) (string, error) {
		return "", errors.New("provider down")
	}
	inv := f.newInvitation(t, "bob@example.com")

	outcome, err := f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome)

	got, err := f.store.Invitations().GetInvitationByID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status)
}

func TestProcessorCancelsExpiredCode(t *testing.T) {
	f := newProcessorFixture(t, 1)
	inv := f.newInvitation(t, "bob@example.com")

	// Insert a second code whose expiry already passed.
	expired := f.code
	expired.ID = idx.New().String()
	expired.Code = "ZZZZyyyy99990000"
	expired.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.store.InviteCodes().CreateInviteCode(context.Background(), expired))

	inv2, err := domain.NewInvitation(idx.New().String(), f.code, f.owner.ID, "carol@example.com", time.Now().UTC())
	require.NoError(t, err)
	inv2.InviteCodeID = expired.ID
	require.NoError(t, f.store.Invitations().CreateInvitation(context.Background(), inv2))

	outcome, err := f.processor.Process(context.Background(), inv2.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCancelled, outcome)
	require.Empty(t, f.sender.sent)

	got, err := f.store.Invitations().GetInvitationByID(context.Background(), inv2.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, got.Status)
	require.NotNil(t, got.ExpiredAt)

	// The live invitation still goes out.
	outcome, err = f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSent, outcome)
}

func TestProcessorCancelsDeletedWorkspace(t *testing.T) {
	f := newProcessorFixture(t, 7)
	inv := f.newInvitation(t, "bob@example.com")

	require.NoError(t, f.store.Workspaces().MarkWorkspaceDeleted(context.Background(), f.workspace.ID, time.Now().UTC()))

	outcome, err := f.processor.Process(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCancelled, outcome)
	require.Empty(t, f.sender.sent)
}

func TestProcessorUnknownInvitation(t *testing.T) {
	f := newProcessorFixture(t, 7)

	outcome, err := f.processor.Process(context.Background(), idx.New().String())
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)
}

func TestWorkerDrainsQueue(t *testing.T) {
	f := newProcessorFixture(t, 7)
	a := f.newInvitation(t, "a@example.com")
	b := f.newInvitation(t, "b@example.com")

	q := NewMemoryQueue()
	defer q.Close()
	NewPublisher(q).PublishInvitations(context.Background(), []string{a.ID, b.ID})

	w := NewWorker(q, f.processor, testLogger(), time.Millisecond, 50*time.Millisecond)
	w.Start()

	require.Eventually(t, func() bool {
		got, err := f.store.Invitations().GetInvitationByID(context.Background(), b.ID)
		return err == nil && got.Status == domain.StatusSent
	}, 5*time.Second, 10*time.Millisecond)

	w.Stop()

	got, err := f.store.Invitations().GetInvitationByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, got.Status)
}

func TestPublisherSurvivesClosedQueue(t *testing.T) {
	q := NewMemoryQueue()
	require.NoError(t, q.Close())

	// Must not panic or fail the request path; the sweep picks the rows up.
	NewPublisher(q).PublishInvitations(context.Background(), []string{"inv-1"})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ store.Store = (*sqlite.Store)(nil)
