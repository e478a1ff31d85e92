package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

// ArtifactHandler serves versioned artifacts.
type ArtifactHandler struct {
	artifacts *service.ArtifactService
	logger    *slog.Logger
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(artifacts *service.ArtifactService, logger *slog.Logger) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts, logger: logger}
}

// RegisterRoutes registers artifact routes
func (h *ArtifactHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/conversations/:id/artifacts", h.List)
	r.POST("/conversations/:id/artifacts", h.Create)
	r.GET("/artifacts/:id", h.Get)
	r.PUT("/artifacts/:id", h.Update)
	r.GET("/artifacts/:id/versions", h.Versions)
}

// List handles GET /api/conversations/:id/artifacts[?all=true]
func (h *ArtifactHandler) List(c *gin.Context) {
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}
	all := c.Query("all") == "true"
	artifacts, err := h.artifacts.ListByConversation(c.Request.Context(), currentUserID(c), convID, all)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

// Create handles POST /api/conversations/:id/artifacts
func (h *ArtifactHandler) Create(c *gin.Context) {
	convID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateArtifactRequest
	if !bindJSON(c, &req, false) {
		return
	}
	artifact, err := h.artifacts.Create(c.Request.Context(), currentUserID(c), convID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

// Get handles GET /api/artifacts/:id
func (h *ArtifactHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	artifact, err := h.artifacts.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// Update handles PUT /api/artifacts/:id; it answers with the new version.
func (h *ArtifactHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateArtifactRequest
	if !bindJSON(c, &req, false) {
		return
	}
	artifact, err := h.artifacts.Update(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// Versions handles GET /api/artifacts/:id/versions
func (h *ArtifactHandler) Versions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.artifacts.Versions(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}
