package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

type RoleHandler struct {
	roleService service.RoleService
}

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.ListProjectRoles(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondError(c, err, "[RoleHandler][List]")
		return
	}

	response := make([]models.RoleResponse, len(roles))
	for i, r := range roles {
		response[i] = toRoleResponse(r.ProjectRole)
		response[i].Members = toMemberResponses(r.Members)
	}
	respondData(c, http.StatusOK, response)
}

// UpdatePermissions replaces the role's permission set wholesale
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	var req models.UpdateRolePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), c.Param("projectId"), c.Param("roleId"), *req.Permissions)
	if err != nil {
		respondError(c, err, "[RoleHandler][UpdatePermissions]")
		return
	}
	respondData(c, http.StatusOK, toRoleResponse(role))
}

func (h *RoleHandler) Assign(c *gin.Context) {
	var req models.AssignRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.roleService.AssignRole(c.Request.Context(), c.Param("projectId"), c.Param("userId"), req.RoleID)
	if err != nil {
		respondError(c, err, "[RoleHandler][Assign]")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role assigned successfully", "data": toMemberResponse(member)})
}

func (h *RoleHandler) Remove(c *gin.Context) {
	if err := h.roleService.RemoveRole(c.Request.Context(), c.Param("projectId"), c.Param("userId")); err != nil {
		respondError(c, err, "[RoleHandler][Remove]")
		return
	}
	respondMessage(c, "Role removed successfully")
}
