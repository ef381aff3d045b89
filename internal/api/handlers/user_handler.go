package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/models"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
)

// ============================================
// Auth Handler
// ============================================

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err, "[AuthHandler][Register]")
		return
	}

	respondData(c, http.StatusCreated, models.AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "[AuthHandler][Login]")
		return
	}

	respondData(c, http.StatusOK, models.AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err, "[AuthHandler][RefreshToken]")
		return
	}

	respondData(c, http.StatusOK, models.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err, "[AuthHandler][Logout]")
		return
	}
	respondMessage(c, "Logged out successfully")
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err, "[AuthHandler][Me]")
		return
	}
	respondData(c, http.StatusOK, toUserResponse(user))
}

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService service.UserService
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "[UserHandler][List]")
		return
	}

	response := make([]models.UserResponse, len(users))
	for i, u := range users {
		response[i] = toUserResponse(u)
	}
	respondData(c, http.StatusOK, response)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "[UserHandler][Get]")
		return
	}
	respondData(c, http.StatusOK, toUserResponse(user))
}
