package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
)

// SessionHandler handles session and rating endpoints
type SessionHandler struct {
	sessionService services.SessionServiceInterface
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService services.SessionServiceInterface) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ListSessions handles GET /api/v1/sessions?role=&view=all|upcoming|previous
func (h *SessionHandler) ListSessions(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	side, ok := sideParam(c, p)
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListSessionsView(c.Request.Context(), p, side, c.DefaultQuery("view", models.SessionViewAll))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sessions)
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := h.sessionService.CreateSession(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, session)
}

// UpdateSession handles PATCH /api/v1/sessions/:id?role=
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	side, ok := sideParam(c, p)
	if !ok {
		return
	}
	var req models.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.IsEmpty() {
		respondError(c, apperrors.ValidationError("body", "no fields to update"))
		return
	}
	res, err := h.sessionService.UpdateSession(c.Request.Context(), p, side, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// RateSession handles POST /api/v1/sessions/:id/rating
func (h *SessionHandler) RateSession(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.RateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	rating, err := h.sessionService.RateSession(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, rating)
}
