package service

import (
	"errors"

	"github.com/Marga-Ghale/ora-projects-backend/internal/config"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

// Error kinds. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// Error carries a caller-facing message and unwraps to its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidInput wraps a validation message.
func InvalidInput(message string) error {
	return newError(ErrInvalidInput, message)
}

// Domain errors with fixed messages
var (
	ErrAccessDenied            = newError(ErrForbidden, "Access denied")
	ErrInsufficientPermissions = newError(ErrForbidden, "Insufficient permissions")
	ErrCannotManageTasks       = newError(ErrForbidden, "Insufficient permissions to manage tasks")
	ErrCannotViewTasks         = newError(ErrForbidden, "Insufficient permissions to view tasks")
	ErrLastOwner               = newError(ErrForbidden, "Cannot remove the last owner")
	ErrOwnerRoleImmutable      = newError(ErrForbidden, "Cannot modify owner role permissions")

	ErrUserNotFound      = newError(ErrNotFound, "User not found")
	ErrMemberNotFound    = newError(ErrNotFound, "Member not found")
	ErrRoleNotFound      = newError(ErrNotFound, "Role not found")
	ErrProjectNotFound   = newError(ErrNotFound, "Project not found")
	ErrTaskNotFound      = newError(ErrNotFound, "Task not found")
	ErrAssigneeNotFound  = newError(ErrNotFound, "Assigned user not found")
	ErrMilestoneNotFound = newError(ErrNotFound, "Milestone not found")
	ErrCommentNotFound   = newError(ErrNotFound, "Comment not found")
	ErrNotLinked         = newError(ErrNotFound, "User is not a member of this project")

	ErrAlreadyMember = newError(ErrConflict, "User is already a member of this project")
	ErrUserExists    = newError(ErrConflict, "User already exists")

	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthorized, "Invalid token")
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID   string
	Role types.GlobalRole
}

func (p Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Permission PermissionService
	Role       RoleService
	Member     MemberService
	Project    ProjectService
	Task       TaskService
	Milestone  MilestoneService
	Comment    CommentService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Cache    AccessCache // optional
	Notifier Notifier    // optional
}

func NewServices(deps *ServiceDeps) *Services {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	permissionService := NewPermissionService(deps.Repos.MemberRepo, deps.Cache)
	roleService := NewRoleService(deps.Repos, permissionService, notifier)

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:       NewUserService(deps.Repos.UserRepo),
		Permission: permissionService,
		Role:       roleService,
		Member:     NewMemberService(deps.Repos, permissionService, notifier),
		Project:    NewProjectService(deps.Repos, roleService, permissionService),
		Task:       NewTaskService(deps.Repos, notifier),
		Milestone:  NewMilestoneService(deps.Repos),
		Comment:    NewCommentService(deps.Repos, notifier),
	}
}
