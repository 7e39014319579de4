package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ecoscan/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestLoggerMiddleware())

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.POST("", handler.CreateOrUpdateProduct)
			products.POST("/batch", handler.BatchLookup)
			products.GET("/:barcode", handler.GetProduct)
			products.GET("/:barcode/nutrients", handler.GetNutrients)
			products.GET("/:barcode/allergens", handler.GetAllergens)
			products.GET("/:barcode/eco", handler.GetEco)
		}

		v1.GET("/search", handler.SearchProducts)
	}

	return router
}
