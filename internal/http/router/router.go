package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/spaces-backend/internal/config"
	"github.com/ignatzorin/spaces-backend/internal/http/handlers"
	"github.com/ignatzorin/spaces-backend/internal/http/middleware"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/service"
)

// SetupRouter собирает все маршруты конвейера безопасности контента.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	mediaHandler *handlers.MediaHandler,
	moderationHandler *handlers.ModerationHandler,
	reportHandler *handlers.ReportHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	// Публичное хранилище отдаётся статикой; карантин наружу не выдаётся никогда.
	r.StaticFS("/public-media", http.Dir(cfg.PublicMediaRoot))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		if authHandler != nil {
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		} else {
			authGroup.POST("/register", storageUnavailable)
			authGroup.POST("/login", storageUnavailable)
			authGroup.POST("/refresh", storageUnavailable)
		}
	}

	// Лента событий модерации (токен в query, проверка роли внутри).
	api.GET("/moderation/ws", wsHandler.Handle)

	// Набор скрытых постов читают все контентные поверхности,
	// авторизация для чтения не требуется.
	api.GET("/moderation/removed-posts", reportHandler.RemovedPosts)

	// Маршруты аутентифицированных пользователей.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Конвейер загрузки живёт только поверх общего durable backend'а.
		// В embedded-режиме его маршруты отвечают ошибкой конфигурации.
		if mediaHandler != nil {
			protected.POST("/media", mediaHandler.Upload)
			protected.GET("/media", mediaHandler.ListMyMedia)
			protected.GET("/media/:id", middleware.UUIDValidator("id"), mediaHandler.GetMedia)
		} else {
			protected.POST("/media", storageUnavailable)
			protected.GET("/media", storageUnavailable)
			protected.GET("/media/:id", storageUnavailable)
		}

		reportGroup := protected.Group("/reports")
		reportGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
		{
			reportGroup.POST("", reportHandler.Submit)
		}
	}

	// Админская поверхность.
	admin := api.Group("/moderation")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireAdmin())
	{
		if moderationHandler != nil {
			admin.GET("/queue", moderationHandler.ListQueue)
			admin.DELETE("/queue/:id", middleware.UUIDValidator("id"), moderationHandler.Dequeue)
			admin.POST("/media/:id/approve", middleware.UUIDValidator("id"), moderationHandler.Approve)
			admin.POST("/media/:id/reject", middleware.UUIDValidator("id"), moderationHandler.Reject)
			admin.POST("/media/:id/scan", middleware.UUIDValidator("id"), moderationHandler.ApplyScanResult)
			admin.POST("/users/:id/ban", middleware.UUIDValidator("id"), moderationHandler.BanOwner)
		}

		admin.GET("/reports", reportHandler.ListPending)
		admin.POST("/reports/:id/dismiss", middleware.UUIDValidator("id"), reportHandler.Dismiss)
		admin.POST("/reports/:id/remove", middleware.UUIDValidator("id"), reportHandler.Remove)
		admin.POST("/reports/invalidate", reportHandler.Invalidate)
	}

	return r
}

// storageUnavailable отвечает на запросы к конвейеру загрузки,
// когда общий backend не сконфигурирован.
func storageUnavailable(c *gin.Context) {
	_ = c.Error(apperror.ErrStorageUnavailable)
}
