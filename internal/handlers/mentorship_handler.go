package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// MentorshipHandler handles relationship endpoints
type MentorshipHandler struct {
	mentorshipService services.MentorshipServiceInterface
}

// NewMentorshipHandler creates a new MentorshipHandler
func NewMentorshipHandler(mentorshipService services.MentorshipServiceInterface) *MentorshipHandler {
	return &MentorshipHandler{mentorshipService: mentorshipService}
}

// ListRelationships handles GET /api/v1/mentorships?role=mentor|mentee
func (h *MentorshipHandler) ListRelationships(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	side, ok := sideParam(c, p)
	if !ok {
		return
	}
	views, err := h.mentorshipService.ListRelationships(c.Request.Context(), p, side)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, views)
}

// AddRelationship handles POST /api/v1/mentorships
func (h *MentorshipHandler) AddRelationship(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.AddRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.mentorshipService.AddRelationship(c.Request.Context(), p, req.CounterpartID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, view)
}

// SetRelationshipStatus handles POST /api/v1/mentorships/:id/status where id
// is the counterpart's principal id
func (h *MentorshipHandler) SetRelationshipStatus(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.SetRelationshipStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	counterpartID := c.Param("id")
	view, err := h.mentorshipService.SetRelationshipStatus(c.Request.Context(), p, counterpartID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Relationship status set via API",
		zap.String("principal_id", p.ID),
		zap.String("counterpart_id", counterpartID),
		zap.String("status", string(view.Status)))
	respondOK(c, http.StatusOK, view)
}
