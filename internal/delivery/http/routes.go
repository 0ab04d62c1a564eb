package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pcsite/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/sync/:category", handler.StartSync)
		v1.POST("/benchmarks/:category", handler.StartBenchmarks)
		v1.POST("/enrich/:category", handler.StartEnrichment)
		v1.POST("/offers/:category", handler.ReconcileOffers)

		v1.GET("/tasks/:id", handler.GetTask)

		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}
	}

	return router
}
