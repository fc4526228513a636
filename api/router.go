package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/api/handlers"
	"github.com/wlfogle/mediafetch/api/middleware"
	"github.com/wlfogle/mediafetch/internal/app"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// Version is the reported application version.
const Version = "1.0.0"

// NewRouter sets up the HTTP status surface: live stats, persisted
// history, prometheus metrics, and health. Acquisition itself runs in
// the CLI process; this API is read-only. Stats and metrics belong to
// the acquiring process, so a caller without them passes nil and those
// routes are not registered.
func NewRouter(stats *domain.Stats, history domain.HistoryRepository, metrics *app.Metrics, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	healthHandler := handlers.NewHealthHandler(Version)
	router.GET("/health", healthHandler.Health)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		if stats != nil {
			statsHandler := handlers.NewStatsHandler(stats)
			v1.GET("/stats", statsHandler.GetStats)
		}

		historyHandler := handlers.NewHistoryHandler(history, log)
		records := v1.Group("/history")
		{
			records.GET("", historyHandler.ListRecords)
			records.GET("/stats", historyHandler.GetHistoryStats)
			records.GET("/:id", historyHandler.GetRecord)
		}
	}

	return router
}
