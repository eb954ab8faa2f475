package store

import (
	"context"
	"errors"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists surfaces unique-constraint violations as a typed
	// error. The invitation flow depends on catching it at three points:
	// invite-code collision retry, concurrent member creation, and the
	// usage-ledger insert.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep concerns tidy; transactions are scoped
// through WithTx so multi-step operations cannot accidentally nest.
type Store interface {
	Users() Users
	Workspaces() Workspaces
	Members() Members
	InviteCodes() InviteCodes
	Invitations() Invitations
	InviteCodeUsages() InviteCodeUsages

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and rolling
	// back on error. This is the recommended entry point.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store: the same repositories plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts; returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

type Workspaces interface {
	CreateWorkspace(ctx context.Context, w domain.Workspace) error

	// GetWorkspaceByID returns ErrNotFound for missing or soft-deleted rows.
	GetWorkspaceByID(ctx context.Context, id string) (domain.Workspace, error)

	UpdateWorkspace(ctx context.Context, id, name, description string, updatedAt time.Time) error
	MarkWorkspaceDeleted(ctx context.Context, id string, deletedAt time.Time) error
}

type Members interface {
	// CreateMember inserts; returns ErrAlreadyExists when a row for the same
	// (workspace, user) already exists. The accept flow converts that into
	// an ALREADY_MEMBER outcome.
	CreateMember(ctx context.Context, m domain.Member) error

	GetMemberByID(ctx context.Context, id string) (domain.Member, error)
	GetMember(ctx context.Context, workspaceID, userID string) (domain.Member, error)
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)

	// ListActiveMemberEmails projects the normalized emails of all ACTIVE
	// members, used to exclude existing members from invitation batches.
	ListActiveMemberEmails(ctx context.Context, workspaceID string) ([]string, error)

	UpdateMemberStatus(ctx context.Context, id string, status domain.MemberStatus, changedAt time.Time) error
	CountActiveMembers(ctx context.Context, workspaceID string) (int, error)
}

type InviteCodes interface {
	// CreateInviteCode inserts; returns ErrAlreadyExists on a code collision
	// so the caller can regenerate.
	CreateInviteCode(ctx context.Context, c domain.InviteCode) error

	GetInviteCodeByID(ctx context.Context, id string) (domain.InviteCode, error)
	GetInviteCodeByCode(ctx context.Context, code string) (domain.InviteCode, error)
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByCodeAndEmail resolves the invitation addressed to one
	// recipient of one code.
	GetInvitationByCodeAndEmail(ctx context.Context, code, email string) (domain.Invitation, error)

	ListInvitationsByWorkspace(ctx context.Context, workspaceID string) ([]domain.Invitation, error)

	// ListPendingOrSentEmails projects the emails with an in-flight
	// (PENDING/SENDING/SENT) invitation in the workspace.
	ListPendingOrSentEmails(ctx context.Context, workspaceID string) ([]string, error)

	// ExpirePendingOrSent bulk-transitions every in-flight invitation for
	// (workspace, email) to EXPIRED. The status-in-set predicate keeps
	// concurrent resends from clobbering each other's fresh rows. Returns
	// the number of rows transitioned.
	ExpirePendingOrSent(ctx context.Context, workspaceID, email string, expiredAt time.Time) (int64, error)

	// ClaimForSending is the PENDING->SENDING compare-and-swap. It reports
	// true only when this caller performed the transition; duplicate queue
	// deliveries and racing workers observe false. claimedAt feeds the
	// stale-SENDING recovery sweep.
	ClaimForSending(ctx context.Context, id string, claimedAt time.Time) (bool, error)

	// The mark operations are guarded by the expected current status and
	// return ErrNotFound when no row matched.
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
	MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error
	MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error

	// ListStalePending returns PENDING invitations created before the cutoff,
	// candidates for re-enqueueing after a crash between commit and enqueue.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Invitation, error)

	// FailStaleSending reverts SENDING rows older than the cutoff to FAILED
	// so a crash mid-send never wedges an invitation forever.
	FailStaleSending(ctx context.Context, cutoff time.Time) (int64, error)
}

type InviteCodeUsages interface {
	// CreateUsage inserts; returns ErrAlreadyExists when the member already
	// has a recorded redemption. Callers treat that as success.
	CreateUsage(ctx context.Context, u domain.InviteCodeUsage) error

	ExistsForMember(ctx context.Context, memberID string) (bool, error)
}
