package sqlite

import (
	"context"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

type usagesRepo struct {
	db querier
}

func (r *usagesRepo) CreateUsage(ctx context.Context, u domain.InviteCodeUsage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invite_code_usages (id, invite_code_id, workspace_member_id, used_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.InviteCodeID, u.WorkspaceMemberID, u.UsedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usagesRepo) ExistsForMember(ctx context.Context, memberID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM invite_code_usages WHERE workspace_member_id = ?)`,
		memberID).Scan(&exists)
	return exists, err
}
