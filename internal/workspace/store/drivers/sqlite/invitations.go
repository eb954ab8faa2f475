package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

type invitationsRepo struct {
	db querier
}

const invitationColumns = `id, invite_code_id, workspace_id, sent_email, status,
	created_by_user_id, created_at, sent_at, accepted_at, expired_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, invite_code_id, workspace_id, sent_email, status,
			created_by_user_id, created_at, updated_at, sent_at, accepted_at, expired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InviteCodeID, inv.WorkspaceID, inv.SentEmail, string(inv.Status),
		inv.CreatedBy, inv.CreatedAt.UTC(), inv.CreatedAt.UTC(),
		mapOptionalTime(inv.SentAt), mapOptionalTime(inv.AcceptedAt), mapOptionalTime(inv.ExpiredAt),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) GetInvitationByCodeAndEmail(ctx context.Context, code, email string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx, `
		SELECT i.id, i.invite_code_id, i.workspace_id, i.sent_email, i.status,
			i.created_by_user_id, i.created_at, i.sent_at, i.accepted_at, i.expired_at
		FROM invitations i
		JOIN invite_codes c ON c.id = i.invite_code_id
		WHERE c.code = ? AND i.sent_email = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT 1`,
		code, email))
}

func (r *invitationsRepo) ListInvitationsByWorkspace(ctx context.Context, workspaceID string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE workspace_id = ? ORDER BY created_at, id`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	return collectInvitations(rows)
}

func (r *invitationsRepo) ListPendingOrSentEmails(ctx context.Context, workspaceID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT sent_email FROM invitations
		WHERE workspace_id = ? AND status IN (?, ?, ?)`,
		workspaceID,
		string(domain.StatusPending), string(domain.StatusSending), string(domain.StatusSent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *invitationsRepo) ExpirePendingOrSent(ctx context.Context, workspaceID, email string, expiredAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, expired_at = ?, updated_at = ?
		WHERE workspace_id = ? AND sent_email = ? AND status IN (?, ?)`,
		string(domain.StatusExpired), expiredAt.UTC(), expiredAt.UTC(),
		workspaceID, email,
		string(domain.StatusPending), string(domain.StatusSent),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *invitationsRepo) ClaimForSending(ctx context.Context, id string, claimedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusSending), claimedAt.UTC(), id, string(domain.StatusPending),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *invitationsRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, sent_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusSent), sentAt.UTC(), sentAt.UTC(),
		id, string(domain.StatusSending),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *invitationsRepo) MarkFailed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusFailed), time.Now().UTC(),
		id, string(domain.StatusSending),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *invitationsRepo) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, expired_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusCancelled), cancelledAt.UTC(), cancelledAt.UTC(),
		id, string(domain.StatusSending),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *invitationsRepo) MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, accepted_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?, ?)`,
		string(domain.StatusAccepted), acceptedAt.UTC(), acceptedAt.UTC(), id,
		string(domain.StatusPending), string(domain.StatusSent), string(domain.StatusFailed),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *invitationsRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id`,
		string(domain.StatusPending), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	return collectInvitations(rows)
}

func (r *invitationsRepo) FailStaleSending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`,
		string(domain.StatusFailed), time.Now().UTC(),
		string(domain.StatusSending), cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv                           domain.Invitation
		status                        string
		sentAt, acceptedAt, expiredAt sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.InviteCodeID, &inv.WorkspaceID, &inv.SentEmail, &status,
		&inv.CreatedBy, &inv.CreatedAt, &sentAt, &acceptedAt, &expiredAt)
	if err != nil {
		if _, ok := row.(*sql.Row); ok {
			return domain.Invitation{}, mapNotFound(err)
		}
		return domain.Invitation{}, err
	}
	inv.Status = domain.InvitationStatus(status)
	inv.SentAt = mapNullTimePtr(sentAt)
	inv.AcceptedAt = mapNullTimePtr(acceptedAt)
	inv.ExpiredAt = mapNullTimePtr(expiredAt)
	return inv, nil
}

func collectInvitations(rows *sql.Rows) ([]domain.Invitation, error) {
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}
