package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Task model
type Task struct {
	ID             string              `json:"id" db:"id"`
	Title          string              `json:"title" db:"title"`
	Description    *string             `json:"description,omitempty" db:"description"`
	Status         string              `json:"status" db:"status"`
	Priority       string              `json:"priority" db:"priority"`
	DueDate        *time.Time          `json:"dueDate,omitempty" db:"due_date"`
	EstimatedHours decimal.NullDecimal `json:"estimatedHours" db:"estimated_hours"`
	ActualHours    decimal.NullDecimal `json:"actualHours" db:"actual_hours"`
	Tags           pq.StringArray      `json:"tags" db:"tags"`
	ProjectID      *string             `json:"projectId,omitempty" db:"project_id"`
	MilestoneID    *string             `json:"milestoneId,omitempty" db:"milestone_id"`
	AssignedTo     *string             `json:"assignedTo,omitempty" db:"assigned_to"`
	CreatedBy      string              `json:"createdBy" db:"created_by"`
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
}

// TaskFilter narrows List. VisibleTo, when set, keeps only tasks the user
// created or is assigned to.
type TaskFilter struct {
	Status     string
	Priority   string
	ProjectID  string
	AssignedTo string
	VisibleTo  string
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, status, priority, due_date, estimated_hours, actual_hours,
	tags, project_id, milestone_id, assigned_to, created_by, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks (title, description, status, priority, due_date, estimated_hours, actual_hours,
			tags, project_id, milestone_id, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.EstimatedHours, task.ActualHours, task.Tags, task.ProjectID, task.MilestoneID,
		task.AssignedTo, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	task := &Task{}
	err := r.db.GetContext(ctx, task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if filter.Status != "" {
		add("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = ?", filter.Priority)
	}
	if filter.ProjectID != "" {
		add("project_id = ?", filter.ProjectID)
	}
	if filter.AssignedTo != "" {
		add("assigned_to = ?", filter.AssignedTo)
	}
	if filter.VisibleTo != "" {
		add("(created_by = ? OR assigned_to = ?)", filter.VisibleTo)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	tasks := []*Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
		    estimated_hours = $7, actual_hours = $8, tags = $9, project_id = $10,
		    milestone_id = $11, assigned_to = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.EstimatedHours, task.ActualHours, task.Tags, task.ProjectID, task.MilestoneID, task.AssignedTo,
	).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *taskRepository) ClearMilestone(ctx context.Context, milestoneID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tasks SET milestone_id = NULL, updated_at = NOW() WHERE milestone_id = $1`, milestoneID)
	return err
}

func (r *taskRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE due_date >= $1 AND due_date < $2 AND status <> 'done' AND assigned_to IS NOT NULL
		ORDER BY due_date`

	tasks := []*Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, from, to); err != nil {
		return nil, err
	}
	return tasks, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
