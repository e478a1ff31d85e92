package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/service"
)

// DataHandler serves prompts, export, stats and maintenance.
type DataHandler struct {
	prompts   *service.PromptService
	export    *service.ExportService
	reconcile *service.ReconcileService
	logger    *slog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(prompts *service.PromptService, export *service.ExportService, reconcile *service.ReconcileService, logger *slog.Logger) *DataHandler {
	return &DataHandler{prompts: prompts, export: export, reconcile: reconcile, logger: logger}
}

// RegisterRoutes registers prompt, export and admin routes
func (h *DataHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/prompts/library", h.PromptLibrary)
	r.GET("/prompts/examples", h.PromptExamples)
	r.GET("/export/full-data", h.Export)
	r.GET("/stats", h.Stats)
	r.POST("/admin/reconcile", h.Reconcile)
}

// PromptLibrary handles GET /api/prompts/library
func (h *DataHandler) PromptLibrary(c *gin.Context) {
	c.JSON(http.StatusOK, h.prompts.Library())
}

// PromptExamples handles GET /api/prompts/examples
func (h *DataHandler) PromptExamples(c *gin.Context) {
	c.JSON(http.StatusOK, h.prompts.Examples())
}

// Export handles GET /api/export/full-data. ?download=true sets an
// attachment filename.
func (h *DataHandler) Export(c *gin.Context) {
	out, err := h.export.Export(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if c.Query("download") == "true" {
		name := fmt.Sprintf("parley-export-%s.json", out.ExportedAt.Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	c.JSON(http.StatusOK, out)
}

// Stats handles GET /api/stats
func (h *DataHandler) Stats(c *gin.Context) {
	stats, err := h.export.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Reconcile handles POST /api/admin/reconcile
func (h *DataHandler) Reconcile(c *gin.Context) {
	res, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
