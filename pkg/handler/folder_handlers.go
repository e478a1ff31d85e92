package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

// FolderHandler serves folders and their items.
type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// RegisterRoutes registers folder routes
func (h *FolderHandler) RegisterRoutes(r *gin.RouterGroup) {
	folders := r.Group("/folders")
	{
		folders.GET("", h.List)
		folders.POST("", h.Create)
		folders.DELETE("/:id", h.Delete)
		folders.GET("/:id/items", h.Items)
		folders.POST("/:id/items", h.AddItem)
		folders.DELETE("/:id/items/:conversationId", h.RemoveItem)
	}
}

// List handles GET /api/folders
func (h *FolderHandler) List(c *gin.Context) {
	folders, err := h.folders.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

// Create handles POST /api/folders
func (h *FolderHandler) Create(c *gin.Context) {
	var req models.CreateFolderRequest
	if !bindJSON(c, &req, false) {
		return
	}
	folder, err := h.folders.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// Delete handles DELETE /api/folders/:id
func (h *FolderHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.folders.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Deleted"})
}

// Items handles GET /api/folders/:id/items
func (h *FolderHandler) Items(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	convs, err := h.folders.Items(c.Request.Context(), currentUserID(c), id)
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

// AddItem handles POST /api/folders/:id/items
func (h *FolderHandler) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.AddFolderItemRequest
	if !bindJSON(c, &req, false) {
		return
	}
	item, err := h.folders.AddItem(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// RemoveItem handles DELETE /api/folders/:id/items/:conversationId
func (h *FolderHandler) RemoveItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	convID, ok := idParam(c, "conversationId")
	if !ok {
		return
	}
	if err := h.folders.RemoveItem(c.Request.Context(), currentUserID(c), id, convID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Removed"})
}
