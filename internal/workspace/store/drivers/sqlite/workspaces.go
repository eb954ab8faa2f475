package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
)

type workspacesRepo struct {
	db querier
}

func (r *workspacesRepo) CreateWorkspace(ctx context.Context, w domain.Workspace) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, description, is_personal, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Description, w.Personal, w.CreatedAt.UTC(),
		mapOptionalTime(w.UpdatedAt), mapOptionalTime(w.DeletedAt),
	)
	return mapConstraint(err)
}

func (r *workspacesRepo) GetWorkspaceByID(ctx context.Context, id string) (domain.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_personal, created_at, updated_at, deleted_at
		FROM workspaces WHERE id = ? AND deleted_at IS NULL`, id)

	var (
		w                    domain.Workspace
		updatedAt, deletedAt sql.NullTime
	)
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.Personal, &w.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return domain.Workspace{}, mapNotFound(err)
	}
	w.UpdatedAt = mapNullTimePtr(updatedAt)
	w.DeletedAt = mapNullTimePtr(deletedAt)
	return w, nil
}

func (r *workspacesRepo) UpdateWorkspace(ctx context.Context, id, name, description string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workspaces SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		name, description, updatedAt.UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *workspacesRepo) MarkWorkspaceDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workspaces SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		deletedAt.UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// requireRowAffected converts a zero-row UPDATE into ErrNotFound, which the
// status-guarded invitation transitions rely on.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
