package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Project   *ProjectHandler
	Role      *RoleHandler
	Member    *MemberHandler
	Task      *TaskHandler
	Milestone *MilestoneHandler
	Comment   *CommentHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:      &AuthHandler{authService: services.Auth, userService: services.User},
		User:      &UserHandler{userService: services.User},
		Project:   &ProjectHandler{projectService: services.Project},
		Role:      &RoleHandler{roleService: services.Role},
		Member:    &MemberHandler{memberService: services.Member},
		Task:      &TaskHandler{taskService: services.Task},
		Milestone: &MilestoneHandler{milestoneService: services.Milestone},
		Comment:   &CommentHandler{commentService: services.Comment},
	}
}

// ============================================
// Responses
// ============================================

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.DataResponse{Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: message})
}

// respondError maps domain errors to their status; anything else is logged as a 500.
func respondError(c *gin.Context, err error, tag string) {
	middleware.AbortWithError(c, err, tag)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toRoleResponse(r *repository.ProjectRole) models.RoleResponse {
	return models.RoleResponse{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		RoleName:    r.Name.String(),
		Permissions: r.Permissions,
		IsDefault:   r.IsDefault,
	}
}

func toMemberResponse(m *repository.ProjectMember) models.MemberResponse {
	resp := models.MemberResponse{
		ID:                   m.ID,
		ProjectID:            m.ProjectID,
		UserID:               m.UserID,
		RoleID:               m.RoleID,
		JoinedAt:             m.JoinedAt,
		LastActive:           m.LastActive,
		NotificationSettings: m.NotificationSettings,
	}
	if m.User != nil {
		u := toUserResponse(m.User)
		resp.User = &u
	}
	if m.Role != nil {
		r := toRoleResponse(m.Role)
		resp.Role = &r
	}
	return resp
}

func toMemberResponses(members []*repository.ProjectMember) []models.MemberResponse {
	response := make([]models.MemberResponse, len(members))
	for i, m := range members {
		response[i] = toMemberResponse(m)
	}
	return response
}

func toProjectResponse(p *repository.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Status:      p.Status,
		Priority:    p.Priority,
		Budget:      p.Budget,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toTaskResponse(t *repository.Task) models.TaskResponse {
	return models.TaskResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		Tags:           safeStringSlice(t.Tags),
		ProjectID:      t.ProjectID,
		MilestoneID:    t.MilestoneID,
		AssignedTo:     t.AssignedTo,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
