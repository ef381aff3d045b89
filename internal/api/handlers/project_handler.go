package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) List(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err, "[ProjectHandler][List]")
		return
	}

	response := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		response[i] = toProjectResponse(p)
	}
	respondData(c, http.StatusOK, response)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), principal, &service.ProjectInput{
		Name:        &req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		Priority:    req.Priority,
		Budget:      req.Budget,
	})
	if err != nil {
		respondError(c, err, "[ProjectHandler][Create]")
		return
	}
	respondData(c, http.StatusCreated, toProjectResponse(project))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), principal, c.Param("projectId"))
	if err != nil {
		respondError(c, err, "[ProjectHandler][Get]")
		return
	}
	respondData(c, http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), principal, c.Param("projectId"), &service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		Priority:    req.Priority,
		Budget:      req.Budget,
	})
	if err != nil {
		respondError(c, err, "[ProjectHandler][Update]")
		return
	}
	respondData(c, http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), principal, c.Param("projectId")); err != nil {
		respondError(c, err, "[ProjectHandler][Delete]")
		return
	}
	respondMessage(c, "Project deleted successfully")
}

// AddUser creates a legacy join record
func (h *ProjectHandler) AddUser(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var req models.AddProjectUserRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.projectService.AddUser(c.Request.Context(), principal, req.ProjectID, req.UserID, types.LegacyProjectRole(req.Role))
	if err != nil {
		respondError(c, err, "[ProjectHandler][AddUser]")
		return
	}
	respondData(c, http.StatusCreated, models.ProjectUserResponse{
		ID:        link.ID,
		UserID:    link.UserID,
		ProjectID: link.ProjectID,
		Role:      string(link.Role),
		CreatedAt: link.CreatedAt,
	})
}

func (h *ProjectHandler) RemoveUser(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	if err := h.projectService.RemoveUser(c.Request.Context(), principal, c.Param("projectId"), c.Param("userId")); err != nil {
		respondError(c, err, "[ProjectHandler][RemoveUser]")
		return
	}
	respondMessage(c, "User removed from project")
}
