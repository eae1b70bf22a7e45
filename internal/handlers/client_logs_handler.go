package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/middleware"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxClientContextFields = 20

// ClientLogsHandler folds browser log batches into the server log stream
type ClientLogsHandler struct{}

// ClientLogEntry is one log line reported by a client
type ClientLogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level" binding:"omitempty,oneof=debug info warn error"`
	Message   string         `json:"message" binding:"required,max=2000"`
	Context   map[string]any `json:"context,omitempty"`
}

// ClientLogBatch is the POST /api/v1/logs body
type ClientLogBatch struct {
	Logs []ClientLogEntry `json:"logs" binding:"required,min=1,max=100,dive"`
}

// ClientLogsResponse reports how many entries were accepted
type ClientLogsResponse struct {
	Received int `json:"received"`
}

// NewClientLogsHandler creates a new ClientLogsHandler
func NewClientLogsHandler() *ClientLogsHandler {
	return &ClientLogsHandler{}
}

// ReceiveClientLogs handles POST /api/v1/logs
func (h *ClientLogsHandler) ReceiveClientLogs(c *gin.Context) {
	var req ClientLogBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	base := []zap.Field{zap.String("source", "client")}
	if p, err := middleware.GetPrincipal(c); err == nil {
		base = append(base, zap.String("principal_id", p.ID))
	}
	log := logger.With(base...)

	for _, entry := range req.Logs {
		fields := make([]zap.Field, 0, len(entry.Context)+1)
		if entry.Timestamp != "" {
			fields = append(fields, zap.String("client_ts", entry.Timestamp))
		}
		n := 0
		for k, v := range entry.Context {
			if n == maxClientContextFields {
				break
			}
			fields = append(fields, zap.Any("ctx."+k, v))
			n++
		}
		if ce := log.Check(clientLevel(entry.Level), entry.Message); ce != nil {
			ce.Write(fields...)
		}
	}

	respondOK(c, http.StatusOK, ClientLogsResponse{Received: len(req.Logs)})
}

// clientLevel maps a client level name; unknown names log at info
func clientLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
