package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
)

type membersRepo struct {
	db querier
}

const memberColumns = `id, workspace_id, user_id, role, status, joined_at, status_changed_at`

func (r *membersRepo) CreateMember(ctx context.Context, m domain.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspace_members (id, workspace_id, user_id, role, status, joined_at, status_changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.WorkspaceID, m.UserID, string(m.Role), string(m.Status),
		m.JoinedAt.UTC(), m.StatusChangedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *membersRepo) GetMemberByID(ctx context.Context, id string) (domain.Member, error) {
	return scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM workspace_members WHERE id = ?`, id))
}

func (r *membersRepo) GetMember(ctx context.Context, workspaceID, userID string) (domain.Member, error) {
	return scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID))
}

func (r *membersRepo) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM workspace_members WHERE workspace_id = ? ORDER BY joined_at, id`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membersRepo) ListActiveMemberEmails(ctx context.Context, workspaceID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.email
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = ? AND m.status = ?`,
		workspaceID, string(domain.MemberActive))
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

func (r *membersRepo) UpdateMemberStatus(ctx context.Context, id string, status domain.MemberStatus, changedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workspace_members SET status = ?, status_changed_at = ? WHERE id = ?`,
		string(status), changedAt.UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *membersRepo) CountActiveMembers(ctx context.Context, workspaceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ? AND status = ?`,
		workspaceID, string(domain.MemberActive)).Scan(&count)
	return count, err
}

func scanMember(row rowScanner) (domain.Member, error) {
	var (
		m            domain.Member
		role, status string
	)
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &role, &status, &m.JoinedAt, &m.StatusChangedAt)
	if err != nil {
		if _, ok := row.(*sql.Row); ok {
			return domain.Member{}, mapNotFound(err)
		}
		return domain.Member{}, err
	}
	m.Role = domain.MemberRole(role)
	m.Status = domain.MemberStatus(status)
	return m, nil
}
