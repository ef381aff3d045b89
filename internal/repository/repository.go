// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrNotFound is returned by writes that matched no row.
	ErrNotFound = errors.New("repository: record not found")
	// ErrLastHolder is returned when a conditional delete would remove the last holder of a role.
	ErrLastHolder = errors.New("repository: last holder of role")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID        string
	Name      string
	Email     string
	Password  string `json:"-"`
	Role      types.GlobalRole
	Avatar    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Project struct {
	ID          string
	Name        string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
	Priority    string
	Budget      decimal.NullDecimal
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserProject is the legacy coarse-grained project join record.
type UserProject struct {
	ID        string
	UserID    string
	ProjectID string
	Role      types.LegacyProjectRole
	CreatedAt time.Time
	User      *User
}

type ProjectRole struct {
	ID          string
	ProjectID   string
	Name        types.RoleName
	Permissions types.PermissionSet
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProjectMember struct {
	ID                   string
	ProjectID            string
	UserID               string
	RoleID               string
	JoinedAt             time.Time
	LastActive           *time.Time
	NotificationSettings types.NotificationSettings
	User                 *User
	Role                 *ProjectRole
}

// ============================================
// Repository Interfaces
// ============================================

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)

	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
}

type ProjectRepository interface {
	// Create inserts the project and the creator's legacy join record atomically.
	Create(ctx context.Context, project *Project, creator *UserProject) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindAll(ctx context.Context) ([]*Project, error)
	FindByUser(ctx context.Context, userID string) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error

	AddUser(ctx context.Context, link *UserProject) error
	FindUser(ctx context.Context, projectID, userID string) (*UserProject, error)
	RemoveUser(ctx context.Context, projectID, userID string) error
}

type RoleRepository interface {
	CreateMany(ctx context.Context, roles []*ProjectRole) error
	FindByID(ctx context.Context, id string) (*ProjectRole, error)
	FindByProject(ctx context.Context, projectID string) ([]*ProjectRole, error)
	FindByName(ctx context.Context, projectID string, name types.RoleName) (*ProjectRole, error)
	UpdatePermissions(ctx context.Context, id string, permissions types.PermissionSet) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *ProjectMember) error
	// Upsert creates the membership or moves the existing one to member.RoleID.
	Upsert(ctx context.Context, member *ProjectMember) (created bool, err error)
	// FindMember loads the membership with its Role.
	FindMember(ctx context.Context, projectID, userID string) (*ProjectMember, error)
	// FindByProject loads memberships with User and Role.
	FindByProject(ctx context.Context, projectID string) ([]*ProjectMember, error)
	FindByRole(ctx context.Context, roleID string) ([]*ProjectMember, error)
	CountByRole(ctx context.Context, roleID string) (int, error)
	UpdateSettings(ctx context.Context, projectID, userID string, settings types.NotificationSettings) error
	Delete(ctx context.Context, projectID, userID string) error
	// DeleteUnlessLastHolder removes the membership only while another membership
	// still references roleID. Count and delete happen under one row lock.
	DeleteUnlessLastHolder(ctx context.Context, projectID, userID, roleID string) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	ClearMilestone(ctx context.Context, milestoneID string) error
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*Task, error)
}

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *Milestone) error
	FindByID(ctx context.Context, id string) (*Milestone, error)
	FindByProject(ctx context.Context, projectID string) ([]*Milestone, error)
	Update(ctx context.Context, milestone *Milestone) error
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	FindByTask(ctx context.Context, taskID string) ([]*Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id string) error
}
