package api

import (
	"github.com/Conceptual-Machines/magda-edit/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-edit/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-edit/internal/config"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface. ext and rec may be nil.
func SetupRouter(
	cfg *config.Config,
	p handlers.Processor,
	ext handlers.ExtractionStatus,
	rec apimiddleware.APIRecorder,
	version string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())
	router.Use(apimiddleware.SentryMiddleware())
	router.Use(apimiddleware.RequestTracking(rec))
	router.Use(apimiddleware.CORS())

	healthHandler := handlers.NewHealthHandler(cfg.LLMProvider, ext)
	router.GET("/health", healthHandler.HealthCheck)

	metricsHandler := handlers.NewMetricsHandler(version, cfg.LLMProvider, ext)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		editHandler := handlers.NewEditHandler(p)
		v1.POST("/edit", editHandler.Edit)
		v1.POST("/edit/parse", editHandler.Parse)
		v1.GET("/edit/commands", editHandler.Commands)
	}

	return router
}
