// Package http exposes prepared products over a read-only JSON API.
package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/oceanprep/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty
// allowedOrigins list allows every origin.
func SetupRouter(inspectUC *usecase.InspectUseCase, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(inspectUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	products := v1.Group("/products")
	products.GET("", handler.ListProducts)
	products.GET("/:name", handler.DescribeProduct)
	products.GET("/:name/profile", handler.GetProfile)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
