package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

// ConversationHandler serves conversation CRUD and sharing.
type ConversationHandler struct {
	conversations *service.ConversationService
	shares        *service.ShareService
	logger        *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *service.ConversationService, shares *service.ShareService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, shares: shares, logger: logger}
}

// RegisterRoutes registers conversation and share routes
func (h *ConversationHandler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/conversations")
	{
		conversations.GET("", h.List)
		conversations.POST("", h.Create)
		conversations.GET("/:id", h.Get)
		conversations.PUT("/:id", h.Update)
		conversations.DELETE("/:id", h.Delete)
		conversations.PUT("/:id/archive", h.Archive)
		conversations.POST("/:id/restore", h.Restore)
		conversations.DELETE("/:id/purge", h.Purge)
		conversations.POST("/:id/share", h.Share)
	}

	r.GET("/shared/:token", h.ViewShare)
	r.DELETE("/shared/:token", h.RevokeShare)
}

// parseFilter reads ?project_id=&archived=true|false|all&search=.
func parseFilter(c *gin.Context) (models.ConversationFilter, bool) {
	var f models.ConversationFilter
	if v := c.Query("project_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "project_id must be numeric", Field: "project_id"})
			return f, false
		}
		pid := uint(id)
		f.ProjectID = &pid
	}
	switch strings.ToLower(c.Query("archived")) {
	case "", "false":
	case "true":
		f.OnlyArchived = true
	case "all":
		f.IncludeArchived = true
	default:
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "archived must be true, false or all", Field: "archived"})
		return f, false
	}
	f.Search = c.Query("search")
	return f, true
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	convs, err := h.conversations.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	resp := make([]models.ConversationSummary, 0, len(convs))
	for i := range convs {
		resp = append(resp, models.NewConversationSummary(&convs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req models.CreateConversationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	conv, err := h.conversations.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// Get handles GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	conv, err := h.conversations.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Update handles PUT /api/conversations/:id
func (h *ConversationHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateConversationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	conv, err := h.conversations.Update(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Archive handles PUT /api/conversations/:id/archive. An empty body archives.
func (h *ConversationHandler) Archive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.ArchiveConversationRequest
	if !bindJSON(c, &req, true) {
		return
	}
	archived := true
	if req.IsArchived != nil {
		archived = *req.IsArchived
	}
	conv, err := h.conversations.SetArchived(c.Request.Context(), currentUserID(c), id, archived)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Delete handles DELETE /api/conversations/:id (soft delete)
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.conversations.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Deleted"})
}

// Restore handles POST /api/conversations/:id/restore
func (h *ConversationHandler) Restore(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	conv, err := h.conversations.Restore(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Purge handles DELETE /api/conversations/:id/purge
func (h *ConversationHandler) Purge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.conversations.Purge(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Purged"})
}

// Share handles POST /api/conversations/:id/share
func (h *ConversationHandler) Share(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateShareRequest
	if !bindJSON(c, &req, true) {
		return
	}
	share, err := h.shares.Create(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.ShareResponse{
		ShareToken: share.ShareToken,
		URL:        "/view/s/" + share.ShareToken,
		ExpiresAt:  share.ExpiresAt,
	})
}

// ViewShare handles GET /api/shared/:token
func (h *ConversationHandler) ViewShare(c *gin.Context) {
	view, err := h.shares.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RevokeShare handles DELETE /api/shared/:token
func (h *ConversationHandler) RevokeShare(c *gin.Context) {
	if err := h.shares.Revoke(c.Request.Context(), currentUserID(c), c.Param("token")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Revoked"})
}
