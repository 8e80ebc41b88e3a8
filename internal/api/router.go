package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/logging"
	"github.com/pressbot/pressbot/pkg/metrics"
)

// Dependencies holds everything the dashboard router serves from. Store
// and Health entries may be nil when the backing service is not
// configured.
type Dependencies struct {
	Store   RunStore
	Health  map[string]HealthChecker
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// NewRouter creates and configures the dashboard router
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Dashboard.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := NewHealthHandler(deps.Health)
	router.GET("/health", healthHandler.Handle)

	if deps.Metrics != nil {
		router.GET("/metrics", deps.Metrics.Handler())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("", func(c *gin.Context) {
			SuccessResponse(c, gin.H{
				"name":    "pressbot dashboard",
				"version": "1.0.0",
				"status":  "ok",
			})
		})

		if deps.Store != nil {
			reportsHandler := NewReportsHandler(deps.Store)
			reports := v1.Group("/reports")
			{
				reports.GET("", reportsHandler.ListRuns)
				reports.GET("/:id", reportsHandler.GetRun)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		NotFoundResponse(c, "endpoint not found")
	})

	return router
}
