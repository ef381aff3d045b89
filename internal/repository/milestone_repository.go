package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Milestone struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	Status      string     `json:"status" db:"status"`
	Order       int        `json:"order" db:"sort_order"`
	Color       string     `json:"color" db:"color"`
	ProjectID   string     `json:"projectId" db:"project_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

const milestoneColumns = `id, title, description, due_date, status, sort_order, color, project_id, created_at, updated_at`

func (r *milestoneRepository) Create(ctx context.Context, m *Milestone) error {
	query := `
		INSERT INTO milestones (title, description, due_date, status, sort_order, color, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		m.Title, m.Description, m.DueDate, m.Status, m.Order, m.Color, m.ProjectID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *milestoneRepository) FindByID(ctx context.Context, id string) (*Milestone, error) {
	m := &Milestone{}
	err := r.db.GetContext(ctx, m, `SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *milestoneRepository) FindByProject(ctx context.Context, projectID string) ([]*Milestone, error) {
	milestones := []*Milestone{}
	err := r.db.SelectContext(ctx, &milestones,
		`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = $1 ORDER BY sort_order, due_date`, projectID)
	if err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *Milestone) error {
	query := `
		UPDATE milestones
		SET title = $2, description = $3, due_date = $4, status = $5, sort_order = $6, color = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.Title, m.Description, m.DueDate, m.Status, m.Order, m.Color,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *milestoneRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
