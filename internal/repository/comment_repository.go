package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Comment struct {
	ID              string         `json:"id" db:"id"`
	Content         string         `json:"content" db:"content"`
	TaskID          string         `json:"taskId" db:"task_id"`
	UserID          string         `json:"userId" db:"user_id"`
	ParentCommentID *string        `json:"parentCommentId,omitempty" db:"parent_comment_id"`
	Mentions        pq.StringArray `json:"mentions" db:"mentions"`
	IsEdited        bool           `json:"isEdited" db:"is_edited"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, content, task_id, user_id, parent_comment_id, mentions, is_edited, created_at, updated_at`

func (r *commentRepository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (content, task_id, user_id, parent_comment_id, mentions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_edited, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query, c.Content, c.TaskID, c.UserID, c.ParentCommentID, c.Mentions).
		Scan(&c.ID, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt)
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	c := &Comment{}
	err := r.db.GetContext(ctx, c, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commentRepository) FindByTask(ctx context.Context, taskID string) ([]*Comment, error) {
	comments := []*Comment{}
	err := r.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, c *Comment) error {
	query := `
		UPDATE comments SET content = $2, mentions = $3, is_edited = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Content, c.Mentions, c.IsEdited).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
