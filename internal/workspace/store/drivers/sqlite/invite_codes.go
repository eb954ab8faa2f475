package sqlite

import (
	"context"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

type inviteCodesRepo struct {
	db querier
}

func (r *inviteCodesRepo) CreateInviteCode(ctx context.Context, c domain.InviteCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invite_codes (id, workspace_id, created_by_user_id, code, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.WorkspaceID, c.CreatedBy, c.Code, c.ExpiresAt.UTC(), c.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *inviteCodesRepo) GetInviteCodeByID(ctx context.Context, id string) (domain.InviteCode, error) {
	return r.scanCode(r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, created_by_user_id, code, expires_at, created_at
		FROM invite_codes WHERE id = ?`, id))
}

func (r *inviteCodesRepo) GetInviteCodeByCode(ctx context.Context, code string) (domain.InviteCode, error) {
	return r.scanCode(r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, created_by_user_id, code, expires_at, created_at
		FROM invite_codes WHERE code = ?`, code))
}

func (r *inviteCodesRepo) scanCode(row rowScanner) (domain.InviteCode, error) {
	var c domain.InviteCode
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.CreatedBy, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.InviteCode{}, mapNotFound(err)
	}
	return c, nil
}
