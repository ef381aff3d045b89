package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

const projectAccessKey = "projectAccess"

// ProjectGuard exposes the authorization evaluator as gin middleware. All
// guards read the project from the :projectId path parameter.
type ProjectGuard struct {
	permissions service.PermissionService
}

func NewProjectGuard(permissions service.PermissionService) *ProjectGuard {
	return &ProjectGuard{permissions: permissions}
}

// ProjectAccess requires a membership in the project and stores it for later guards.
func (g *ProjectGuard) ProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := RequirePrincipal(c)
		if !ok {
			return
		}

		access, err := g.permissions.CheckProjectAccess(c.Request.Context(), principal, c.Param("projectId"))
		if err != nil {
			AbortWithError(c, err, "[ProjectGuard][ProjectAccess]")
			return
		}

		c.Set(projectAccessKey, access)
		c.Next()
	}
}

// RequirePermission must run after ProjectAccess.
func (g *ProjectGuard) RequirePermission(capability types.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.permissions.CheckPermission(GetProjectAccess(c), capability); err != nil {
			AbortWithError(c, err, "[ProjectGuard][RequirePermission]")
			return
		}
		c.Next()
	}
}

// RequireSelfOrPermission passes when :userId is the caller, else checks capability.
func (g *ProjectGuard) RequireSelfOrPermission(capability types.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.permissions.CheckSelfOrPermission(GetProjectAccess(c), c.Param("userId"), capability); err != nil {
			AbortWithError(c, err, "[ProjectGuard][RequireSelfOrPermission]")
			return
		}
		c.Next()
	}
}

func (g *ProjectGuard) TaskManagement() gin.HandlerFunc {
	return g.standalone("[ProjectGuard][TaskManagement]", g.permissions.CheckTaskManagement)
}

func (g *ProjectGuard) TaskView() gin.HandlerFunc {
	return g.standalone("[ProjectGuard][TaskView]", g.permissions.CheckTaskView)
}

func (g *ProjectGuard) standalone(tag string, check func(ctx context.Context, principal service.Principal, projectID string) (*service.ProjectAccess, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := RequirePrincipal(c)
		if !ok {
			return
		}

		access, err := check(c.Request.Context(), principal, c.Param("projectId"))
		if err != nil {
			AbortWithError(c, err, tag)
			return
		}

		c.Set(projectAccessKey, access)
		c.Next()
	}
}

// GetProjectAccess returns the access stored by a project guard, or nil.
func GetProjectAccess(c *gin.Context) *service.ProjectAccess {
	v, exists := c.Get(projectAccessKey)
	if !exists {
		return nil
	}
	access, _ := v.(*service.ProjectAccess)
	return access
}
