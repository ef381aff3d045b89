package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// ProjectInput holds optional project fields; nil means unchanged on update.
type ProjectInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
	Priority    *string
	Budget      *decimal.Decimal
}

// ProjectService gates project CRUD with the legacy join records and a
// global-admin bypass. It does not consult the Role Registry.
type ProjectService interface {
	List(ctx context.Context, principal Principal) ([]*repository.Project, error)
	Create(ctx context.Context, principal Principal, input *ProjectInput) (*repository.Project, error)
	Get(ctx context.Context, principal Principal, projectID string) (*repository.Project, error)
	Update(ctx context.Context, principal Principal, projectID string, input *ProjectInput) (*repository.Project, error)
	Delete(ctx context.Context, principal Principal, projectID string) error
	AddUser(ctx context.Context, principal Principal, projectID, userID string, role types.LegacyProjectRole) (*repository.UserProject, error)
	RemoveUser(ctx context.Context, principal Principal, projectID, userID string) error
}

type projectService struct {
	projectRepo repository.ProjectRepository
	memberRepo  repository.MemberRepository
	userRepo    repository.UserRepository
	roles       RoleService
	permissions PermissionService
}

func NewProjectService(repos *repository.Repositories, roles RoleService, permissions PermissionService) ProjectService {
	return &projectService{
		projectRepo: repos.ProjectRepo,
		memberRepo:  repos.MemberRepo,
		userRepo:    repos.UserRepo,
		roles:       roles,
		permissions: permissions,
	}
}

func (s *projectService) List(ctx context.Context, principal Principal) ([]*repository.Project, error) {
	if principal.IsAdmin() {
		return s.projectRepo.FindAll(ctx)
	}
	return s.projectRepo.FindByUser(ctx, principal.ID)
}

// Create stores the project with the creator's legacy join record, seeds the
// default roles and makes the creator the owner member.
func (s *projectService) Create(ctx context.Context, principal Principal, input *ProjectInput) (*repository.Project, error) {
	project := &repository.Project{
		Status:    types.ProjectPlanning,
		Priority:  types.PriorityMedium,
		CreatedBy: principal.ID,
	}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if project.Name == "" {
		return nil, InvalidInput("Project name is required")
	}

	creator := &repository.UserProject{UserID: principal.ID, Role: types.LegacyMember}
	if err := s.projectRepo.Create(ctx, project, creator); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := s.bootstrapRoles(ctx, project.ID, principal.ID); err != nil {
		logger.Error().Err(err).Str("projectId", project.ID).Msg("[ProjectService][Create] role bootstrap failed, rolling back project")
		if delErr := s.projectRepo.Delete(ctx, project.ID); delErr != nil {
			logger.Error().Err(delErr).Str("projectId", project.ID).Msg("[ProjectService][Create] rollback failed")
		}
		s.permissions.InvalidateProject(ctx, project.ID)
		return nil, err
	}

	return project, nil
}

func (s *projectService) bootstrapRoles(ctx context.Context, projectID, creatorID string) error {
	roles, err := s.roles.CreateDefaultRoles(ctx, projectID)
	if err != nil {
		return err
	}

	var ownerRoleID string
	for _, r := range roles {
		if r.Name.IsOwner() {
			ownerRoleID = r.ID
		}
	}

	return s.memberRepo.Create(ctx, &repository.ProjectMember{
		ProjectID:            projectID,
		UserID:               creatorID,
		RoleID:               ownerRoleID,
		NotificationSettings: types.DefaultNotificationSettings(),
	})
}

func (s *projectService) Get(ctx context.Context, principal Principal, projectID string) (*repository.Project, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireLinked(ctx, principal, projectID, "Not authorized to view this project"); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Update(ctx context.Context, principal Principal, projectID string, input *ProjectInput) (*repository.Project, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireLinked(ctx, principal, projectID, "Not authorized to update this project"); err != nil {
		return nil, err
	}

	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if project.Name == "" {
		return nil, InvalidInput("Project name is required")
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Delete removes the project; memberships and roles go with it, so cached
// access for the project is dropped too.
func (s *projectService) Delete(ctx context.Context, principal Principal, projectID string) error {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return newError(ErrForbidden, "Only admins can delete projects")
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	s.permissions.InvalidateProject(ctx, projectID)
	return nil
}

func (s *projectService) AddUser(ctx context.Context, principal Principal, projectID, userID string, role types.LegacyProjectRole) (*repository.UserProject, error) {
	if role == "" {
		role = types.LegacyMember
	}
	if !role.Valid() {
		return nil, InvalidInput("Invalid project role")
	}

	if _, err := s.findProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireLinked(ctx, principal, projectID, "Not authorized to manage this project"); err != nil {
		return nil, err
	}

	link := &repository.UserProject{UserID: userID, ProjectID: projectID, Role: role}
	if err := s.projectRepo.AddUser(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return link, nil
}

func (s *projectService) RemoveUser(ctx context.Context, principal Principal, projectID, userID string) error {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.requireLinked(ctx, principal, projectID, "Not authorized to manage this project"); err != nil {
		return err
	}

	if err := s.projectRepo.RemoveUser(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotLinked
		}
		return err
	}
	return nil
}

func (s *projectService) findProject(ctx context.Context, projectID string) (*repository.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *projectService) requireUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

// requireLinked passes global admins and principals with a legacy join record.
func (s *projectService) requireLinked(ctx context.Context, principal Principal, projectID, denied string) error {
	if principal.IsAdmin() {
		return nil
	}
	link, err := s.projectRepo.FindUser(ctx, projectID, principal.ID)
	if err != nil {
		return err
	}
	if link == nil {
		return newError(ErrForbidden, denied)
	}
	return nil
}

func applyProjectInput(p *repository.Project, in *ProjectInput) error {
	if in == nil {
		return nil
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.Status != nil {
		if !types.IsValidProjectStatus(*in.Status) {
			return InvalidInput("Invalid project status")
		}
		p.Status = *in.Status
	}
	if in.Priority != nil {
		if !types.IsValidProjectPriority(*in.Priority) {
			return InvalidInput("Invalid project priority")
		}
		p.Priority = *in.Priority
	}
	if in.Budget != nil {
		if in.Budget.IsNegative() {
			return InvalidInput("Budget cannot be negative")
		}
		p.Budget = decimal.NewNullDecimal(*in.Budget)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return InvalidInput("End date must be after start date")
	}
	return nil
}
