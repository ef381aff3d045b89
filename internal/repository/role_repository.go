package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

type pgRoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &pgRoleRepository{pool: pool}
}

const roleColumns = `id, project_id, name, permissions, is_default, created_at, updated_at`

func scanRole(row pgx.Row) (*ProjectRole, error) {
	role := &ProjectRole{}
	err := row.Scan(&role.ID, &role.ProjectID, &role.Name, &role.Permissions, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

// CreateMany inserts all roles in one transaction.
func (r *pgRoleRepository) CreateMany(ctx context.Context, roles []*ProjectRole) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO project_roles (project_id, name, permissions, is_default)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	for _, role := range roles {
		if err := tx.QueryRow(ctx, query, role.ProjectID, role.Name, role.Permissions, role.IsDefault).
			Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *pgRoleRepository) FindByID(ctx context.Context, id string) (*ProjectRole, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM project_roles WHERE id = $1`, id))
}

func (r *pgRoleRepository) FindByProject(ctx context.Context, projectID string) ([]*ProjectRole, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM project_roles WHERE project_id = $1 ORDER BY created_at, name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*ProjectRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *pgRoleRepository) FindByName(ctx context.Context, projectID string, name types.RoleName) (*ProjectRole, error) {
	query := `SELECT ` + roleColumns + ` FROM project_roles WHERE project_id = $1 AND name = $2`
	return scanRole(r.pool.QueryRow(ctx, query, projectID, name))
}

func (r *pgRoleRepository) UpdatePermissions(ctx context.Context, id string, permissions types.PermissionSet) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE project_roles SET permissions = $2, updated_at = NOW()
		WHERE id = $1
	`, id, permissions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
