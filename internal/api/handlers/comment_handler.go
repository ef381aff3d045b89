package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

// CommentHandler serves /projects/:projectId/tasks/:taskId/comments and relies
// on the project access stored by the guards.
type CommentHandler struct {
	commentService service.CommentService
}

func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.List(c.Request.Context(), middleware.GetProjectAccess(c), c.Param("taskId"))
	if err != nil {
		respondError(c, err, "[CommentHandler][List]")
		return
	}
	respondData(c, http.StatusOK, comments)
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.GetProjectAccess(c), c.Param("taskId"), req.Content, req.ParentCommentID, req.Mentions)
	if err != nil {
		respondError(c, err, "[CommentHandler][Create]")
		return
	}
	respondData(c, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req models.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), middleware.GetProjectAccess(c), c.Param("taskId"), c.Param("commentId"), req.Content)
	if err != nil {
		respondError(c, err, "[CommentHandler][Update]")
		return
	}
	respondData(c, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), middleware.GetProjectAccess(c), c.Param("taskId"), c.Param("commentId")); err != nil {
		respondError(c, err, "[CommentHandler][Delete]")
		return
	}
	respondMessage(c, "Comment deleted successfully")
}
