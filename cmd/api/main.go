package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Marga-Ghale/ora-projects-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-projects-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-projects-backend/internal/config"
	"github.com/Marga-Ghale/ora-projects-backend/internal/cron"
	"github.com/Marga-Ghale/ora-projects-backend/internal/db"
	"github.com/Marga-Ghale/ora-projects-backend/internal/email"
	"github.com/Marga-Ghale/ora-projects-backend/internal/notification"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/seed"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/socket"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

func main() {
	// ============================================
	// Environment and configuration
	// ============================================
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ============================================
	// Storage: PostgreSQL when configured, otherwise in-memory
	// ============================================
	var repos *repository.Repositories
	if cfg.DatabaseURL != "" {
		logger.Info().Str("path", cfg.MigrationsPath).Msg("Running database migrations...")
		if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			logger.Fatal().Err(err).Msg("Migration failed")
		}

		pg, err := db.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pg.Close()

		repos = repository.NewRepositories(pg.Pool, pg.SQL)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		repos = repository.NewMemoryRepositories()
	}

	// ============================================
	// Redis permission cache (optional)
	// ============================================
	var cache service.AccessCache
	redisStatus := "disabled"
	if cfg.RedisURL != "" && cfg.PermissionCacheTTL > 0 {
		redisDB, err := db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Redis, continuing without cache")
		} else {
			defer redisDB.Close()
			cache = db.NewPermissionCache(redisDB, cfg.PermissionCacheTTL)
			redisStatus = "connected"
		}
	}

	// ============================================
	// Email
	// ============================================
	emailSvc := email.NewService(&email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		UseTLS:   cfg.SMTPUseTLS,
	})
	var mailer notification.Mailer
	emailStatus := "disabled"
	if emailSvc.Enabled() {
		queue := email.NewQueue(emailSvc, 2)
		defer queue.Stop()
		mailer = queue
		emailStatus = "configured"
	} else {
		logger.Warn().Msg("Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// WebSocket hub, notifications and services
	// ============================================
	var services *service.Services
	hub := socket.NewHub(func(ctx context.Context, userID, projectID string) bool {
		return socket.MembershipAuthorizer(services.Permission)(ctx, userID, projectID)
	})
	go hub.Run(rootCtx)

	notifier := notification.NewService(repos, socket.NewBroadcaster(hub), mailer, cfg.FrontendURL)

	services = service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		Cache:    cache,
		Notifier: notifier,
	})

	if cfg.Seed {
		if err := seed.SeedData(rootCtx, repos, services); err != nil {
			logger.Error().Err(err).Msg("Seeding failed")
		}
	}

	// ============================================
	// Scheduled jobs
	// ============================================
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)

	scheduler := cron.NewScheduler(repos.TaskRepo, notifier, authLimiter, cfg.DueReminderSchedule)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	// ============================================
	// HTTP server
	// ============================================
	wsHandler := socket.NewHandler(rootCtx, hub, services.Auth, cfg.CORSOrigins)

	router := handlers.NewRouter(handlers.RouterConfig{
		Services:    services,
		CORSOrigins: cfg.CORSOrigins,
		AuthLimiter: authLimiter,
		WebSocket:   wsHandler.HandleWebSocket,
		Health: func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"timestamp": time.Now(),
				"cache":     redisStatus,
				"email":     emailStatus,
				"websocket": gin.H{"clients": hub.ClientCount()},
			})
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info().Msg("Server exited")
}
