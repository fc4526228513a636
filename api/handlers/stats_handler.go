package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// StatsHandler serves live acquisition counters.
type StatsHandler struct {
	stats *domain.Stats
}

// NewStatsHandler creates a stats handler
func NewStatsHandler(stats *domain.Stats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}
