package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

// MemberHandler serves /projects/:projectId/members. Routes are mounted
// behind the project guards, so the caller's access is already checked.
type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.memberService.ListMembers(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondError(c, err, "[MemberHandler][List]")
		return
	}
	respondData(c, http.StatusOK, toMemberResponses(members))
}

// Invite adds an existing user, looked up by email, with the given role
func (h *MemberHandler) Invite(c *gin.Context) {
	var req models.InviteMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.memberService.InviteMember(c.Request.Context(), c.Param("projectId"), req.Email, req.RoleID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "[MemberHandler][Invite]")
		return
	}
	respondData(c, http.StatusCreated, toMemberResponse(member))
}

func (h *MemberHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateMemberSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.memberService.UpdateMemberSettings(c.Request.Context(), c.Param("projectId"), c.Param("userId"), *req.NotificationSettings)
	if err != nil {
		respondError(c, err, "[MemberHandler][UpdateSettings]")
		return
	}
	respondData(c, http.StatusOK, toMemberResponse(member))
}

func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.memberService.RemoveMember(c.Request.Context(), c.Param("projectId"), c.Param("userId")); err != nil {
		respondError(c, err, "[MemberHandler][Remove]")
		return
	}
	respondMessage(c, "Member removed successfully")
}

func (h *MemberHandler) Permissions(c *gin.Context) {
	member, err := h.memberService.GetMemberPermissions(c.Request.Context(), c.Param("projectId"), c.Param("userId"))
	if err != nil {
		respondError(c, err, "[MemberHandler][Permissions]")
		return
	}

	resp := models.MemberPermissionsResponse{UserID: member.UserID, RoleID: member.RoleID}
	if member.Role != nil {
		resp.RoleName = member.Role.Name.String()
		resp.Permissions = member.Role.Permissions
	}
	respondData(c, http.StatusOK, resp)
}
