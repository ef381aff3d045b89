package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgProjectRepository{pool: pool}
}

const projectColumns = `p.id, p.name, p.description, p.start_date, p.end_date, p.status, p.priority,
		p.budget, p.created_by, p.created_at, p.updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	p := &Project{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.Priority,
		&p.Budget, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectProjects(rows pgx.Rows) ([]*Project, error) {
	defer rows.Close()
	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *pgProjectRepository) Create(ctx context.Context, project *Project, creator *UserProject) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO projects (name, description, start_date, end_date, status, priority, budget, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		project.Name, project.Description, project.StartDate, project.EndDate,
		project.Status, project.Priority, project.Budget, project.CreatedBy,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return err
	}

	if creator != nil {
		creator.ProjectID = project.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO user_projects (user_id, project_id, role)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, creator.UserID, creator.ProjectID, creator.Role).Scan(&creator.ID, &creator.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProjectRepository) FindAll(ctx context.Context) ([]*Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

func (r *pgProjectRepository) FindByUser(ctx context.Context, userID string) ([]*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN user_projects up ON up.project_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

func (r *pgProjectRepository) Update(ctx context.Context, project *Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, start_date = $4, end_date = $5,
		    status = $6, priority = $7, budget = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		project.ID, project.Name, project.Description, project.StartDate, project.EndDate,
		project.Status, project.Priority, project.Budget,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================
// Legacy join records
// ============================================

func (r *pgProjectRepository) AddUser(ctx context.Context, link *UserProject) error {
	query := `
		INSERT INTO user_projects (user_id, project_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, link.UserID, link.ProjectID, link.Role).Scan(&link.ID, &link.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgProjectRepository) FindUser(ctx context.Context, projectID, userID string) (*UserProject, error) {
	query := `
		SELECT id, user_id, project_id, role, created_at
		FROM user_projects
		WHERE project_id = $1 AND user_id = $2
	`
	up := &UserProject{}
	err := r.pool.QueryRow(ctx, query, projectID, userID).
		Scan(&up.ID, &up.UserID, &up.ProjectID, &up.Role, &up.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return up, nil
}

func (r *pgProjectRepository) RemoveUser(ctx context.Context, projectID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_projects WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
