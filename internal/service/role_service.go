package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// RoleDetails is a role together with the memberships that reference it.
type RoleDetails struct {
	*repository.ProjectRole
	Members []*repository.ProjectMember
}

type RoleService interface {
	// CreateDefaultRoles seeds the five default roles. It is not idempotent and
	// must run exactly once, when the project is created.
	CreateDefaultRoles(ctx context.Context, projectID string) ([]*repository.ProjectRole, error)
	ListProjectRoles(ctx context.Context, projectID string) ([]*RoleDetails, error)
	UpdateRolePermissions(ctx context.Context, projectID, roleID string, permissions types.PermissionSet) (*repository.ProjectRole, error)
	AssignRole(ctx context.Context, projectID, userID, roleID string) (*repository.ProjectMember, error)
	RemoveRole(ctx context.Context, projectID, userID string) error
}

type roleService struct {
	roleRepo    repository.RoleRepository
	memberRepo  repository.MemberRepository
	userRepo    repository.UserRepository
	permissions PermissionService
	notifier    Notifier
}

func NewRoleService(repos *repository.Repositories, permissions PermissionService, notifier Notifier) RoleService {
	return &roleService{
		roleRepo:    repos.RoleRepo,
		memberRepo:  repos.MemberRepo,
		userRepo:    repos.UserRepo,
		permissions: permissions,
		notifier:    notifier,
	}
}

func (s *roleService) CreateDefaultRoles(ctx context.Context, projectID string) ([]*repository.ProjectRole, error) {
	roles := make([]*repository.ProjectRole, 0, len(types.DefaultRoleNames))
	for _, name := range types.DefaultRoleNames {
		perms, _ := types.DefaultPermissions(name)
		roles = append(roles, &repository.ProjectRole{
			ProjectID:   projectID,
			Name:        name,
			Permissions: perms,
			IsDefault:   true,
		})
	}

	if err := s.roleRepo.CreateMany(ctx, roles); err != nil {
		return nil, fmt.Errorf("failed to create default roles: %w", err)
	}
	return roles, nil
}

func (s *roleService) ListProjectRoles(ctx context.Context, projectID string) ([]*RoleDetails, error) {
	roles, err := s.roleRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	result := make([]*RoleDetails, 0, len(roles))
	for _, role := range roles {
		members, err := s.memberRepo.FindByRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &RoleDetails{ProjectRole: role, Members: members})
	}
	return result, nil
}

// UpdateRolePermissions replaces the whole permission set. The owner role is immutable.
func (s *roleService) UpdateRolePermissions(ctx context.Context, projectID, roleID string, permissions types.PermissionSet) (*repository.ProjectRole, error) {
	role, err := s.findProjectRole(ctx, projectID, roleID)
	if err != nil {
		return nil, err
	}
	if role.Name.IsOwner() {
		logger.Warn().Str("projectId", projectID).Str("roleId", roleID).Msg("[RoleService][UpdateRolePermissions] DENIED: owner role")
		return nil, ErrOwnerRoleImmutable
	}

	if err := s.roleRepo.UpdatePermissions(ctx, roleID, permissions); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	role.Permissions = permissions

	s.permissions.InvalidateProject(ctx, projectID)
	s.notifier.RolePermissionsUpdated(ctx, role)
	return role, nil
}

// AssignRole grants roleID to the user, creating the membership if needed.
// Moving a member off the owner role is not checked against the last owner.
func (s *roleService) AssignRole(ctx context.Context, projectID, userID, roleID string) (*repository.ProjectMember, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.findProjectRole(ctx, projectID, roleID); err != nil {
		return nil, err
	}

	member := &repository.ProjectMember{
		ProjectID:            projectID,
		UserID:               userID,
		RoleID:               roleID,
		NotificationSettings: types.DefaultNotificationSettings(),
	}
	created, err := s.memberRepo.Upsert(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}
	s.permissions.InvalidateProject(ctx, projectID)

	full, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		return nil, ErrMemberNotFound
	}

	if created {
		s.notifier.MemberAdded(ctx, full, "")
	} else {
		s.notifier.MemberRoleUpdated(ctx, full)
	}
	return full, nil
}

func (s *roleService) RemoveRole(ctx context.Context, projectID, userID string) error {
	member, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	return removeMembership(ctx, s.memberRepo, s.permissions, s.notifier, member)
}

func (s *roleService) findProjectRole(ctx context.Context, projectID, roleID string) (*repository.ProjectRole, error) {
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil || role.ProjectID != projectID {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// removeMembership destroys member. When its role is named owner, the delete
// only succeeds while another membership references the same role id.
func removeMembership(ctx context.Context, memberRepo repository.MemberRepository, permissions PermissionService, notifier Notifier, member *repository.ProjectMember) error {
	var err error
	if member.Role != nil && member.Role.Name.IsOwner() {
		err = memberRepo.DeleteUnlessLastHolder(ctx, member.ProjectID, member.UserID, member.RoleID)
	} else {
		err = memberRepo.Delete(ctx, member.ProjectID, member.UserID)
	}

	switch {
	case errors.Is(err, repository.ErrLastHolder):
		logger.Warn().Str("projectId", member.ProjectID).Str("userId", member.UserID).Msg("[removeMembership] DENIED: last owner")
		return ErrLastOwner
	case errors.Is(err, repository.ErrNotFound):
		return ErrMemberNotFound
	case err != nil:
		return fmt.Errorf("failed to remove member: %w", err)
	}

	permissions.InvalidateProject(ctx, member.ProjectID)
	notifier.MemberRemoved(ctx, member.ProjectID, member.UserID)
	return nil
}
