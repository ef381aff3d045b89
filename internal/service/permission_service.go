package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// AccessCache stores resolved memberships between requests. Entries are
// scoped to a per-project generation that InvalidateProject advances.
type AccessCache interface {
	Generation(ctx context.Context, projectID string) (int64, bool)
	GetAccess(ctx context.Context, projectID, userID string, generation int64) (*repository.ProjectMember, bool)
	SetAccess(ctx context.Context, member *repository.ProjectMember, generation int64)
	InvalidateProject(ctx context.Context, projectID string)
}

// ProjectAccess is what a successful project access check exposes to later checks.
type ProjectAccess struct {
	Principal   Principal
	ProjectID   string
	Member      *repository.ProjectMember
	Permissions types.PermissionSet
}

func (a *ProjectAccess) Can(capability types.Capability) bool {
	return a != nil && a.Permissions.Allows(capability)
}

// RoleName is the name of the member's project role, empty if unknown.
func (a *ProjectAccess) RoleName() types.RoleName {
	if a == nil || a.Member == nil || a.Member.Role == nil {
		return ""
	}
	return a.Member.Role.Name
}

// ============================================
// Authorization Evaluator
// ============================================

// PermissionService decides project-scoped access from memberships and role
// permission sets. There is no global-admin bypass here.
type PermissionService interface {
	CheckProjectAccess(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error)
	CheckPermission(access *ProjectAccess, capability types.Capability) error
	CheckSelfOrPermission(access *ProjectAccess, targetUserID string, capability types.Capability) error
	CheckTaskManagement(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error)
	CheckTaskView(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error)
	InvalidateProject(ctx context.Context, projectID string)
}

type permissionService struct {
	memberRepo repository.MemberRepository
	cache      AccessCache
}

func NewPermissionService(memberRepo repository.MemberRepository, cache AccessCache) PermissionService {
	return &permissionService{memberRepo: memberRepo, cache: cache}
}

func (s *permissionService) CheckProjectAccess(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error) {
	if principal.ID == "" || projectID == "" {
		return nil, ErrAccessDenied
	}

	member, err := s.loadMember(ctx, projectID, principal.ID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrAccessDenied
	}

	access := &ProjectAccess{Principal: principal, ProjectID: projectID, Member: member}
	if member.Role != nil {
		access.Permissions = member.Role.Permissions
	}
	return access, nil
}

func (s *permissionService) loadMember(ctx context.Context, projectID, userID string) (*repository.ProjectMember, error) {
	// The generation is read before the store so that a removal landing
	// between the lookup and the write leaves the write unreachable.
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		generation, cacheable = s.cache.Generation(ctx, projectID)
		if cacheable {
			if member, ok := s.cache.GetAccess(ctx, projectID, userID, generation); ok {
				return member, nil
			}
		}
	}

	member, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if member != nil && cacheable {
		s.cache.SetAccess(ctx, member, generation)
	}
	return member, nil
}

func (s *permissionService) CheckPermission(access *ProjectAccess, capability types.Capability) error {
	if access == nil {
		return ErrAccessDenied
	}
	if !access.Can(capability) {
		return ErrInsufficientPermissions
	}
	return nil
}

func (s *permissionService) CheckSelfOrPermission(access *ProjectAccess, targetUserID string, capability types.Capability) error {
	if access == nil {
		return ErrAccessDenied
	}
	if targetUserID != "" && targetUserID == access.Principal.ID {
		return nil
	}
	return s.CheckPermission(access, capability)
}

func (s *permissionService) CheckTaskManagement(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error) {
	return s.requireCapability(ctx, principal, projectID, types.CanManageTasks, ErrCannotManageTasks)
}

func (s *permissionService) CheckTaskView(ctx context.Context, principal Principal, projectID string) (*ProjectAccess, error) {
	return s.requireCapability(ctx, principal, projectID, types.CanViewTasks, ErrCannotViewTasks)
}

// requireCapability is CheckProjectAccess followed by CheckPermission. Every
// denial is reported as denied, so the message names the capability area.
func (s *permissionService) requireCapability(ctx context.Context, principal Principal, projectID string, capability types.Capability, denied error) (*ProjectAccess, error) {
	access, err := s.CheckProjectAccess(ctx, principal, projectID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return nil, denied
		}
		return nil, err
	}
	if err := s.CheckPermission(access, capability); err != nil {
		return nil, denied
	}
	return access, nil
}

func (s *permissionService) InvalidateProject(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateProject(ctx, projectID)
	logger.Debug().Str("projectId", projectID).Msg("[PermissionService] access cache invalidated")
}
