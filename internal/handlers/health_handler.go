package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger func(ctx context.Context) error

// HealthHandler reports database reachability and change feed state
type HealthHandler struct {
	database      Pinger
	listenerState func() realtime.State
}

// NewHealthHandler creates a health handler. listenerState may be nil when
// the change feed is not running.
func NewHealthHandler(database Pinger, listenerState func() realtime.State) *HealthHandler {
	return &HealthHandler{database: database, listenerState: listenerState}
}

// Healthcheck handles GET /api/healthcheck
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	body := gin.H{"status": "ok", "database": "ok"}
	status := http.StatusOK

	if err := h.database(ctx); err != nil {
		attachError(c, err)
		body["status"] = "unavailable"
		body["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	// A reconnecting feed degrades live updates but not the REST API
	if h.listenerState != nil {
		state := h.listenerState()
		body["changeFeed"] = string(state)
		if state != realtime.StateListening && status == http.StatusOK {
			body["status"] = "degraded"
		}
	}

	c.JSON(status, body)
}
