package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

type RouterConfig struct {
	Services    *service.Services
	CORSOrigins []string
	AuthLimiter *middleware.RateLimiter // optional
	WebSocket   gin.HandlerFunc         // optional
	Health      gin.HandlerFunc         // optional
}

// NewRouter builds the gin engine with every API route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinRecovery(), logger.GinLogger())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := cfg.Health
	if health == nil {
		health = func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
		}
	}
	r.GET("/health", health)

	h := NewHandlers(cfg.Services)
	guard := middleware.NewProjectGuard(cfg.Services.Permission)
	authRequired := middleware.AuthMiddleware(cfg.Services.Auth)

	api := r.Group("/api/v1")
	{
		// ============================================
		// Public routes
		// ============================================
		auth := api.Group("/auth")
		if cfg.AuthLimiter != nil {
			auth.Use(cfg.AuthLimiter.Middleware())
		}
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", authRequired, h.Auth.Me)
		}

		if cfg.WebSocket != nil {
			api.GET("/ws", cfg.WebSocket)
		}

		// ============================================
		// Protected routes
		// ============================================
		protected := api.Group("", authRequired)
		{
			users := protected.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/:userId", h.User.Get)
			}

			// Project CRUD uses the legacy join guard inside the service
			projects := protected.Group("/projects")
			{
				projects.GET("", h.Project.List)
				projects.POST("", h.Project.Create)
				projects.POST("/users", h.Project.AddUser)
				projects.GET("/:projectId", h.Project.Get)
				projects.PUT("/:projectId", h.Project.Update)
				projects.DELETE("/:projectId", h.Project.Delete)
				projects.DELETE("/:projectId/users/:userId", h.Project.RemoveUser)
			}

			// Everything below is gated by the authorization evaluator
			project := protected.Group("/projects/:projectId")
			{
				project.GET("/roles", guard.ProjectAccess(), h.Role.List)
				project.PUT("/roles/:roleId", guard.ProjectAccess(), guard.RequirePermission(types.CanManageProject), h.Role.UpdatePermissions)
				project.POST("/users/:userId/role", guard.ProjectAccess(), guard.RequirePermission(types.CanManageMembers), h.Role.Assign)
				project.DELETE("/users/:userId/role", guard.ProjectAccess(), guard.RequirePermission(types.CanManageMembers), h.Role.Remove)

				project.GET("/members", guard.ProjectAccess(), h.Member.List)
				project.POST("/members", guard.ProjectAccess(), guard.RequirePermission(types.CanManageMembers), h.Member.Invite)
				project.PUT("/members/:userId/settings", guard.ProjectAccess(), guard.RequireSelfOrPermission(types.CanManageMembers), h.Member.UpdateSettings)
				project.DELETE("/members/:userId", guard.ProjectAccess(), guard.RequirePermission(types.CanManageMembers), h.Member.Remove)
				project.GET("/members/:userId/permissions", guard.ProjectAccess(), h.Member.Permissions)

				project.GET("/milestones", guard.TaskView(), h.Milestone.List)
				project.GET("/milestones/:milestoneId", guard.TaskView(), h.Milestone.Get)
				project.POST("/milestones", guard.TaskManagement(), h.Milestone.Create)
				project.PUT("/milestones/:milestoneId", guard.TaskManagement(), h.Milestone.Update)
				project.DELETE("/milestones/:milestoneId", guard.TaskManagement(), h.Milestone.Delete)

				comments := project.Group("/tasks/:taskId/comments", guard.ProjectAccess())
				{
					comments.GET("", guard.RequirePermission(types.CanViewTasks), h.Comment.List)
					comments.POST("", guard.RequirePermission(types.CanComment), h.Comment.Create)
					comments.PUT("/:commentId", h.Comment.Update)
					comments.DELETE("/:commentId", h.Comment.Delete)
				}
			}

			// Tasks use the ownership guard inside the service
			tasks := protected.Group("/tasks")
			{
				tasks.GET("", h.Task.List)
				tasks.POST("", h.Task.Create)
				tasks.GET("/:id", h.Task.Get)
				tasks.PUT("/:id", h.Task.Update)
				tasks.DELETE("/:id", h.Task.Delete)
			}
		}
	}

	return r
}
