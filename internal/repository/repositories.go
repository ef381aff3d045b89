package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Identity and membership (pgxpool)
	UserRepo    UserRepository
	ProjectRepo ProjectRepository
	RoleRepo    RoleRepository
	MemberRepo  MemberRepository

	// Task-related repositories (sqlx)
	TaskRepo      TaskRepository
	MilestoneRepo MilestoneRepository
	CommentRepo   CommentRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		UserRepo:    NewUserRepository(pool),
		ProjectRepo: NewProjectRepository(pool),
		RoleRepo:    NewRoleRepository(pool),
		MemberRepo:  NewMemberRepository(pool),

		TaskRepo:      NewTaskRepository(db),
		MilestoneRepo: NewMilestoneRepository(db),
		CommentRepo:   NewCommentRepository(db),
	}
}

// NewMemoryRepositories returns repositories sharing one in-memory store.
func NewMemoryRepositories() *Repositories {
	s := newMemoryStore()
	return &Repositories{
		UserRepo:      &memoryUserRepository{s: s},
		ProjectRepo:   &memoryProjectRepository{s: s},
		RoleRepo:      &memoryRoleRepository{s: s},
		MemberRepo:    &memoryMemberRepository{s: s},
		TaskRepo:      &memoryTaskRepository{s: s},
		MilestoneRepo: &memoryMilestoneRepository{s: s},
		CommentRepo:   &memoryCommentRepository{s: s},
	}
}
