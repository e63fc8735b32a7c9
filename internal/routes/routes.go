package routes

import (
	"path/filepath"

	"natours_backend/internal/handlers"
	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options - настройки маршрутов, которые зависят от конфигурации
type Options struct {
	// JSONBodyLimit - лимит JSON тела для /api
	JSONBodyLimit int64
	// UploadBodyLimit - лимит multipart запросов с файлами
	UploadBodyLimit int64
	// StaticDir - каталог локального хранилища; пустой, если файлы лежат в S3
	StaticDir string
	// RateLimiter - лимит запросов на IP для /api; nil отключает
	RateLimiter *middleware.RateLimiter
	Swagger     bool
}

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guard middleware.Guard,
	opts Options,
) {
	// Вебхук Stripe проверяет подпись по сырому телу: до SanitizeJSON и лимитов
	appHandlers.BookingHandler.RegisterWebhook(ginRouter)

	api := ginRouter.Group("/api/v1")
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Middleware())
	}
	api.Use(bodyLimits(opts.JSONBodyLimit, opts.UploadBodyLimit), middleware.SanitizeJSON())
	{
		appHandlers.AuthHandler.RegisterRoutes(api, guard)
		appHandlers.UserHandler.RegisterRoutes(api, guard)
		appHandlers.TourHandler.RegisterRoutes(api, guard)
		appHandlers.ReviewHandler.RegisterRoutes(api, guard)
		appHandlers.BookingHandler.RegisterRoutes(api, guard)
	}

	appHandlers.ViewHandler.RegisterRoutes(ginRouter, guard)
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)

	if opts.StaticDir != "" {
		ginRouter.Static("/img", filepath.Join(opts.StaticDir, "img"))
		logger.Info("Static files served from local storage", "dir", opts.StaticDir)
	}

	if opts.Swagger {
		ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ginRouter.NoRoute(func(c *gin.Context) {
		apperrors.HandleError(c, apperrors.ErrRouteNotFound(c.Request.URL.String()))
	})

	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}

// bodyLimits - маленький лимит для JSON, большой для загрузки изображений
func bodyLimits(jsonLimit, uploadLimit int64) gin.HandlerFunc {
	small := middleware.BodyLimit(jsonLimit)
	large := middleware.BodyLimit(uploadLimit)

	return func(c *gin.Context) {
		if c.ContentType() == "multipart/form-data" {
			large(c)
			return
		}
		small(c)
	}
}
