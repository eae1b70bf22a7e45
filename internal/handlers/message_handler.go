package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
)

// MessageHandler handles messaging endpoints
type MessageHandler struct {
	messageService services.MessageServiceInterface
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService services.MessageServiceInterface) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MarkReadResponse reports whether the call flipped the flag
type MarkReadResponse struct {
	Changed bool `json:"changed"`
}

// ListMessages handles GET /api/v1/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	list, err := h.messageService.ListMessages(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// SendMessage handles POST /api/v1/mentorships/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	msg, err := h.messageService.SendMessage(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, msg)
}

// MarkAsRead handles POST /api/v1/messages/:id/read
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	changed, err := h.messageService.MarkAsRead(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, MarkReadResponse{Changed: changed})
}
