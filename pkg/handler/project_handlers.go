package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

// ProjectHandler serves projects and the user profile.
type ProjectHandler struct {
	projects      *service.ProjectService
	conversations *service.ConversationService
	users         *service.UserService
	logger        *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *service.ProjectService, conversations *service.ConversationService, users *service.UserService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, conversations: conversations, users: users, logger: logger}
}

// RegisterRoutes registers project and user routes
func (h *ProjectHandler) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.GET("", h.List)
		projects.POST("", h.Create)
		projects.GET("/:id", h.Get)
		projects.PUT("/:id", h.Update)
		projects.DELETE("/:id", h.Delete)
		projects.GET("/:id/conversations", h.Conversations)
	}

	r.GET("/user", h.GetUser)
	r.PUT("/user", h.UpdateUser)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req models.CreateProjectRequest
	if !bindJSON(c, &req, false) {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProjectRequest
	if !bindJSON(c, &req, false) {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Deleted"})
}

// Conversations handles GET /api/projects/:id/conversations
func (h *ProjectHandler) Conversations(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)
	if _, err := h.projects.Get(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	convs, err := h.conversations.List(c.Request.Context(), userID, models.ConversationFilter{ProjectID: &id, IncludeArchived: true})
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

// GetUser handles GET /api/user
func (h *ProjectHandler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/user
func (h *ProjectHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if !bindJSON(c, &req, false) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
