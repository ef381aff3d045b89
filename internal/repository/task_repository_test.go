package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var taskRowColumns = []string{
	"id", "title", "description", "status", "priority", "due_date", "estimated_hours", "actual_hours",
	"tags", "project_id", "milestone_id", "assigned_to", "created_by", "created_at", "updated_at",
}

func TestTaskRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("t1", now, now))

	task := &Task{
		Title:          "Write docs",
		Status:         "todo",
		Priority:       "medium",
		EstimatedHours: decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
		Tags:           pq.StringArray{"docs"},
		CreatedBy:      "u1",
	}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, now, task.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1").
			WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
				"t1", "Ship", nil, "todo", "high", nil, "3.25", nil,
				"{backend,api}", "p1", nil, "u2", "u1", now, now,
			))

		task, err := repo.FindByID(context.Background(), "t1")
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, "Ship", task.Title)
		assert.True(t, task.EstimatedHours.Valid)
		assert.Equal(t, "3.25", task.EstimatedHours.Decimal.String())
		assert.False(t, task.ActualHours.Valid)
		assert.Equal(t, pq.StringArray{"backend", "api"}, task.Tags)
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, "u2", *task.AssignedTo)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		task, err := repo.FindByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, task)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListVisibleTo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE status = \$1 AND \(created_by = \$2 OR assigned_to = \$2\) ORDER BY created_at DESC`).
		WithArgs("todo", "u1").
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := repo.List(context.Background(), TaskFilter{Status: "todo", VisibleTo: "u1"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").
		WithArgs("t9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "t9")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ClearMilestone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectExec("UPDATE tasks SET milestone_id = NULL").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.ClearMilestone(context.Background(), "m1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMilestoneRepository_UpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMilestoneRepository(db)

	mock.ExpectQuery("UPDATE milestones").
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &Milestone{ID: "m1", Title: "Beta", Status: "planned"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMilestoneRepository_FindByProject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMilestoneRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM milestones WHERE project_id = \\$1").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "due_date", "status", "sort_order", "color", "project_id", "created_at", "updated_at",
		}).
			AddRow("m1", "Alpha", nil, nil, "planned", 0, "#3498db", "p1", now, now).
			AddRow("m2", "Beta", nil, nil, "delayed", 1, "#e74c3c", "p1", now, now))

	milestones, err := repo.FindByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, milestones, 2)
	assert.Equal(t, 1, milestones[1].Order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_CreateAndFind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO comments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_edited", "created_at", "updated_at"}).AddRow("c1", false, now, now))

	c := &Comment{Content: "hi @bob", TaskID: "t1", UserID: "u1", Mentions: pq.StringArray{"u2"}}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, "c1", c.ID)

	mock.ExpectQuery("SELECT (.+) FROM comments WHERE task_id = \\$1").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "content", "task_id", "user_id", "parent_comment_id", "mentions", "is_edited", "created_at", "updated_at",
		}).AddRow("c1", "hi @bob", "t1", "u1", nil, "{u2}", false, now, now))

	comments, err := repo.FindByTask(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, pq.StringArray{"u2"}, comments[0].Mentions)
	require.NoError(t, mock.ExpectationsWereMet())
}
