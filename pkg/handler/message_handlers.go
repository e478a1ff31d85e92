package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

// MessageHandler serves conversation messages.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// RegisterRoutes registers message routes
func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/conversations/:id/messages", h.List)
	r.POST("/conversations/:id/messages", h.Create)
	r.GET("/messages/:id", h.Get)
	r.PUT("/messages/:id", h.Update)
	r.DELETE("/messages/:id", h.Delete)
}

// List handles GET /api/conversations/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.messages.List(c.Request.Context(), currentUserID(c), convID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// Create handles POST /api/conversations/:id/messages
func (h *MessageHandler) Create(c *gin.Context) {
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateMessageRequest
	if !bindJSON(c, &req, false) {
		return
	}
	msg, err := h.messages.Create(c.Request.Context(), currentUserID(c), convID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Update handles PUT /api/messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateMessageRequest
	if !bindJSON(c, &req, false) {
		return
	}
	msg, err := h.messages.Update(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Delete handles DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Deleted"})
}
