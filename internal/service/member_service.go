package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// ============================================
// Member Service
// ============================================

type MemberService interface {
	ListMembers(ctx context.Context, projectID string) ([]*repository.ProjectMember, error)
	InviteMember(ctx context.Context, projectID, email, roleID, invitedBy string) (*repository.ProjectMember, error)
	UpdateMemberSettings(ctx context.Context, projectID, userID string, settings types.NotificationSettings) (*repository.ProjectMember, error)
	RemoveMember(ctx context.Context, projectID, userID string) error
	GetMemberPermissions(ctx context.Context, projectID, userID string) (*repository.ProjectMember, error)
}

type memberService struct {
	memberRepo  repository.MemberRepository
	roleRepo    repository.RoleRepository
	userRepo    repository.UserRepository
	permissions PermissionService
	notifier    Notifier
}

func NewMemberService(repos *repository.Repositories, permissions PermissionService, notifier Notifier) MemberService {
	return &memberService{
		memberRepo:  repos.MemberRepo,
		roleRepo:    repos.RoleRepo,
		userRepo:    repos.UserRepo,
		permissions: permissions,
		notifier:    notifier,
	}
}

func (s *memberService) ListMembers(ctx context.Context, projectID string) ([]*repository.ProjectMember, error) {
	return s.memberRepo.FindByProject(ctx, projectID)
}

// InviteMember adds the user with the given email to the project. The unique
// (project, user) constraint decides concurrent invites; the loser gets ErrAlreadyMember.
func (s *memberService) InviteMember(ctx context.Context, projectID, email, roleID, invitedBy string) (*repository.ProjectMember, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.memberRepo.FindMember(ctx, projectID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil || role.ProjectID != projectID {
		return nil, ErrRoleNotFound
	}

	member := &repository.ProjectMember{
		ProjectID:            projectID,
		UserID:               user.ID,
		RoleID:               role.ID,
		NotificationSettings: types.DefaultNotificationSettings(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	s.permissions.InvalidateProject(ctx, projectID)

	member.User = user
	member.Role = role

	logger.Info().
		Str("projectId", projectID).
		Str("userId", user.ID).
		Str("role", role.Name.String()).
		Msg("[MemberService][InviteMember] member added")

	s.notifier.MemberAdded(ctx, member, invitedBy)
	return member, nil
}

// UpdateMemberSettings replaces the notification settings wholesale.
func (s *memberService) UpdateMemberSettings(ctx context.Context, projectID, userID string, settings types.NotificationSettings) (*repository.ProjectMember, error) {
	if err := s.memberRepo.UpdateSettings(ctx, projectID, userID, settings); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	s.permissions.InvalidateProject(ctx, projectID)

	member, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (s *memberService) RemoveMember(ctx context.Context, projectID, userID string) error {
	member, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	return removeMembership(ctx, s.memberRepo, s.permissions, s.notifier, member)
}

func (s *memberService) GetMemberPermissions(ctx context.Context, projectID, userID string) (*repository.ProjectMember, error) {
	member, err := s.memberRepo.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}
