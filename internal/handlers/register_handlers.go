package handlers

import (
	"github.com/SscSPs/rate_ingestor/cmd/docs"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/SscSPs/rate_ingestor/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up the ops routes. opsLimiter may be nil to disable rate limiting
// on the trigger endpoints.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	control portssvc.IngestionControl,
	opsLimiter *limiter.Limiter,
) {
	ops := newOpsHandler(control)
	r.GET("/health", ops.getHealth)
	r.GET("/stats", ops.getStats)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	setupAPIV1Routes(r, cfg, control, opsLimiter)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group holding the manual triggers.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	control portssvc.IngestionControl,
	opsLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	if opsLimiter != nil {
		v1.Use(middleware.RateLimit(opsLimiter))
	}

	registerIngestionRoutes(v1, control, cfg.Retention())
}

// setupSwaggerRoutes serves the generated API docs outside production.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
