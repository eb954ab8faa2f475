package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/internal/workspace/store/drivers/sqlite"
)

// capturePublisher records published IDs instead of queueing them.
type capturePublisher struct {
	ids []string
}

func (p *capturePublisher) PublishInvitations(_ context.Context, invitationIDs []string) {
	p.ids = append(p.ids, invitationIDs...)
}

type env struct {
	store       store.Store
	users       *UserService
	workspaces  *WorkspaceService
	invitations *InvitationService
	published   *capturePublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	published := &capturePublisher{}
	return &env{
		store:       st,
		users:       &UserService{Store: st},
		workspaces:  &WorkspaceService{Store: st},
		invitations: &InvitationService{Store: st, Publisher: published},
		published:   published,
	}
}

func (e *env) register(t *testing.T, name, email string) domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, email, "s3cret-password")
	require.NoError(t, err)
	return u
}

func (e *env) createWorkspace(t *testing.T, ownerID, name string) domain.Workspace {
	t.Helper()
	ws, err := e.workspaces.CreateWorkspace(context.Background(), ownerID, name, "")
	require.NoError(t, err)
	return ws
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
