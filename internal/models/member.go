package models

import (
	"time"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

// ============================================
// Member Management Models
// ============================================

type InviteMemberRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID string `json:"roleId" binding:"required"`
}

type UpdateMemberSettingsRequest struct {
	NotificationSettings *types.NotificationSettings `json:"notificationSettings" binding:"required"`
}

type AssignRoleRequest struct {
	RoleID string `json:"roleId" binding:"required"`
}

type UpdateRolePermissionsRequest struct {
	Permissions *types.PermissionSet `json:"permissions" binding:"required"`
}

type RoleResponse struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"projectId"`
	RoleName    string              `json:"roleName"`
	Permissions types.PermissionSet `json:"permissions"`
	IsDefault   bool                `json:"isDefault"`
	Members     []MemberResponse    `json:"members,omitempty"`
}

type MemberResponse struct {
	ID                   string                     `json:"id"`
	ProjectID            string                     `json:"projectId"`
	UserID               string                     `json:"userId"`
	RoleID               string                     `json:"roleId"`
	JoinedAt             time.Time                  `json:"joinedAt"`
	LastActive           *time.Time                 `json:"lastActive"`
	NotificationSettings types.NotificationSettings `json:"notificationSettings"`
	User                 *UserResponse              `json:"user,omitempty"`
	Role                 *RoleResponse              `json:"role,omitempty"`
}

type MemberPermissionsResponse struct {
	UserID      string              `json:"userId"`
	RoleID      string              `json:"roleId"`
	RoleName    string              `json:"roleName"`
	Permissions types.PermissionSet `json:"permissions"`
}
