package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skinmatch/backend/config"
	"github.com/skinmatch/backend/internal/infrastructure/logger"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(logger.Recovery(log))
	router.Use(logger.GinMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)))
	{
		concerns := v1.Group("/concerns")
		{
			concerns.GET("", handler.ListConcerns)
			concerns.GET("/compatibility", handler.CheckCompatibility)
			concerns.GET("/:name", handler.GetConcern)
		}

		recommendations := v1.Group("/recommendations")
		{
			recommendations.GET("", handler.GetRecommendations)
			recommendations.POST("", handler.PostRecommendations)
		}

		v1.POST("/analysis", handler.PostAnalysis)

		v1.GET("/products/:id", handler.GetProduct)
		v1.POST("/catalog/refresh", handler.RefreshCatalog)
	}

	return router
}
