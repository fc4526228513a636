package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/domain"
)

const defaultHistoryLimit = 50

// HistoryHandler serves persisted acquisition outcomes.
type HistoryHandler struct {
	history domain.HistoryRepository
	logger  *zap.Logger
}

// NewHistoryHandler creates a history handler
func NewHistoryHandler(history domain.HistoryRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// ListRecords handles GET /api/v1/history
func (h *HistoryHandler) ListRecords(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history persistence is disabled"})
		return
	}

	if outcome := c.Query("outcome"); outcome != "" {
		records, err := h.history.FindByOutcome(domain.ItemOutcome(outcome))
		if err != nil {
			h.logger.Error("Failed to query history", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.history.Recent(limit)
	if err != nil {
		h.logger.Error("Failed to query history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// GetRecord handles GET /api/v1/history/:id
func (h *HistoryHandler) GetRecord(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history persistence is disabled"})
		return
	}

	record, err := h.history.FindByID(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to query history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetHistoryStats handles GET /api/v1/history/stats
func (h *HistoryHandler) GetHistoryStats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history persistence is disabled"})
		return
	}

	stats, err := h.history.GetStats()
	if err != nil {
		h.logger.Error("Failed to query history stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
