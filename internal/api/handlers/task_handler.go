package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

// ============================================
// Task Handler
// ============================================

type TaskHandler struct {
	taskService service.TaskService
}

func (h *TaskHandler) List(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var q models.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), principal, repository.TaskFilter{
		Status:     q.Status,
		Priority:   q.Priority,
		ProjectID:  q.ProjectID,
		AssignedTo: q.AssignedTo,
	})
	if err != nil {
		respondError(c, err, "[TaskHandler][List]")
		return
	}

	response := make([]models.TaskResponse, len(tasks))
	for i, t := range tasks {
		response[i] = toTaskResponse(t)
	}
	respondData(c, http.StatusOK, response)
}

func (h *TaskHandler) Create(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), principal, &service.TaskInput{
		Title:          &req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Tags:           req.Tags,
		ProjectID:      req.ProjectID,
		MilestoneID:    req.MilestoneID,
		AssignedTo:     req.AssignedTo,
	})
	if err != nil {
		respondError(c, err, "[TaskHandler][Create]")
		return
	}
	respondData(c, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) Get(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err, "[TaskHandler][Get]")
		return
	}
	respondData(c, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Update(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), principal, c.Param("id"), &service.TaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Tags:           req.Tags,
		ProjectID:      req.ProjectID,
		MilestoneID:    req.MilestoneID,
		AssignedTo:     req.AssignedTo,
	})
	if err != nil {
		respondError(c, err, "[TaskHandler][Update]")
		return
	}
	respondData(c, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err, "[TaskHandler][Delete]")
		return
	}
	respondMessage(c, "Task deleted successfully")
}

// ============================================
// Milestone Handler
// ============================================

type MilestoneHandler struct {
	milestoneService service.MilestoneService
}

func (h *MilestoneHandler) List(c *gin.Context) {
	milestones, err := h.milestoneService.List(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondError(c, err, "[MilestoneHandler][List]")
		return
	}
	respondData(c, http.StatusOK, milestones)
}

func (h *MilestoneHandler) Get(c *gin.Context) {
	milestone, err := h.milestoneService.Get(c.Request.Context(), c.Param("projectId"), c.Param("milestoneId"))
	if err != nil {
		respondError(c, err, "[MilestoneHandler][Get]")
		return
	}
	respondData(c, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Create(c *gin.Context) {
	var req models.CreateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}

	milestone, err := h.milestoneService.Create(c.Request.Context(), c.Param("projectId"), &service.MilestoneInput{
		Title:       &req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Order:       req.Order,
		Color:       req.Color,
	})
	if err != nil {
		respondError(c, err, "[MilestoneHandler][Create]")
		return
	}
	respondData(c, http.StatusCreated, milestone)
}

func (h *MilestoneHandler) Update(c *gin.Context) {
	var req models.UpdateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}

	milestone, err := h.milestoneService.Update(c.Request.Context(), c.Param("projectId"), c.Param("milestoneId"), &service.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Order:       req.Order,
		Color:       req.Color,
	})
	if err != nil {
		respondError(c, err, "[MilestoneHandler][Update]")
		return
	}
	respondData(c, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Delete(c *gin.Context) {
	if err := h.milestoneService.Delete(c.Request.Context(), c.Param("projectId"), c.Param("milestoneId")); err != nil {
		respondError(c, err, "[MilestoneHandler][Delete]")
		return
	}
	respondMessage(c, "Milestone deleted successfully")
}
