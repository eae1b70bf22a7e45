package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
)

// StatsHandler serves the dashboard summary
type StatsHandler struct {
	statsService services.StatsServiceInterface
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService services.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats handles GET /api/v1/stats?role=
func (h *StatsHandler) GetStats(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	side, ok := sideParam(c, p)
	if !ok {
		return
	}
	stats, err := h.statsService.ComputeStats(c.Request.Context(), p, side)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
