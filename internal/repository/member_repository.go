package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

type pgMemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgMemberRepository{pool: pool}
}

const memberWithRoleQuery = `
	SELECT pm.id, pm.project_id, pm.user_id, pm.role_id, pm.joined_at, pm.last_active, pm.notification_settings,
	       r.id, r.project_id, r.name, r.permissions, r.is_default, r.created_at, r.updated_at,
	       u.id, u.name, u.email, u.role, u.avatar
	FROM project_members pm
	JOIN project_roles r ON r.id = pm.role_id
	JOIN users u ON u.id = pm.user_id
`

func scanMember(row pgx.Row) (*ProjectMember, error) {
	m := &ProjectMember{Role: &ProjectRole{}, User: &User{}}
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.UserID, &m.RoleID, &m.JoinedAt, &m.LastActive, &m.NotificationSettings,
		&m.Role.ID, &m.Role.ProjectID, &m.Role.Name, &m.Role.Permissions, &m.Role.IsDefault, &m.Role.CreatedAt, &m.Role.UpdatedAt,
		&m.User.ID, &m.User.Name, &m.User.Email, &m.User.Role, &m.User.Avatar,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func collectMembers(rows pgx.Rows) ([]*ProjectMember, error) {
	defer rows.Close()
	var members []*ProjectMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create fails with ErrDuplicate when (project_id, user_id) already exists.
func (r *pgMemberRepository) Create(ctx context.Context, member *ProjectMember) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role_id, notification_settings)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at
	`
	err := r.pool.QueryRow(ctx, query, member.ProjectID, member.UserID, member.RoleID, member.NotificationSettings).
		Scan(&member.ID, &member.JoinedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgMemberRepository) Upsert(ctx context.Context, member *ProjectMember) (bool, error) {
	query := `
		INSERT INTO project_members (project_id, user_id, role_id, notification_settings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role_id = EXCLUDED.role_id
		RETURNING id, joined_at, last_active, notification_settings, (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.pool.QueryRow(ctx, query, member.ProjectID, member.UserID, member.RoleID, member.NotificationSettings).
		Scan(&member.ID, &member.JoinedAt, &member.LastActive, &member.NotificationSettings, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *pgMemberRepository) FindMember(ctx context.Context, projectID, userID string) (*ProjectMember, error) {
	return scanMember(r.pool.QueryRow(ctx, memberWithRoleQuery+` WHERE pm.project_id = $1 AND pm.user_id = $2`, projectID, userID))
}

func (r *pgMemberRepository) FindByProject(ctx context.Context, projectID string) ([]*ProjectMember, error) {
	rows, err := r.pool.Query(ctx, memberWithRoleQuery+` WHERE pm.project_id = $1 ORDER BY pm.joined_at`, projectID)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

func (r *pgMemberRepository) FindByRole(ctx context.Context, roleID string) ([]*ProjectMember, error) {
	rows, err := r.pool.Query(ctx, memberWithRoleQuery+` WHERE pm.role_id = $1 ORDER BY pm.joined_at`, roleID)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

func (r *pgMemberRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM project_members WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

func (r *pgMemberRepository) UpdateSettings(ctx context.Context, projectID, userID string, settings types.NotificationSettings) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE project_members SET notification_settings = $3
		WHERE project_id = $1 AND user_id = $2
	`, projectID, userID, settings)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgMemberRepository) Delete(ctx context.Context, projectID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUnlessLastHolder locks every membership of roleID before counting, so two
// concurrent removals of the remaining holders serialize and the second one sees
// the first delete.
func (r *pgMemberRepository) DeleteUnlessLastHolder(ctx context.Context, projectID, userID, roleID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id FROM project_members WHERE role_id = $1 ORDER BY id FOR UPDATE`, roleID)
	if err != nil {
		return err
	}
	holders := 0
	for rows.Next() {
		holders++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if holders <= 1 {
		return ErrLastHolder
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM project_members
		WHERE project_id = $1 AND user_id = $2 AND role_id = $3
	`, projectID, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
