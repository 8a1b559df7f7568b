package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"activity-log-api/internal/middleware"
	"activity-log-api/internal/models"
)

// Version reported by the health endpoint
const Version = "1.0.0"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Dispatcher *Dispatcher

	// Reported by /health
	StoreDriver          string
	GenerationConfigured bool
}

// SetupRoutes configures all routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", healthHandler(config))

	// The action endpoint answers every method itself so that non-POST
	// requests get the 405 body clients expect.
	action := config.Dispatcher.GinHandler()
	router.Any("/api", action)
	router.Any("/.netlify/functions/api", action)
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, logger *logrus.Logger, maxBodyBytes int64) {
	router.Use(middleware.Recovery(logger))

	// Request ID and correlation ID
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())

	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(maxBodyBytes))

	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
}

// healthHandler reports service status
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthCheck
// @Router /health [get]
func healthHandler(config *RouterConfig) gin.HandlerFunc {
	generation := "not_configured"
	if config.GenerationConfigured {
		generation = "configured"
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthCheck{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   Version,
			Services: map[string]string{
				"store":      config.StoreDriver,
				"generation": generation,
			},
		})
	}
}
