package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/service"
)

// RegisterAPI mounts every JSON endpoint under r (normally /api).
func RegisterAPI(r *gin.RouterGroup, svcs *service.Services, logger *slog.Logger) {
	NewConversationHandler(svcs.Conversations, svcs.Shares, logger).RegisterRoutes(r)
	NewMessageHandler(svcs.Messages, logger).RegisterRoutes(r)
	NewArtifactHandler(svcs.Artifacts, logger).RegisterRoutes(r)
	NewProjectHandler(svcs.Projects, svcs.Conversations, svcs.Users, logger).RegisterRoutes(r)
	NewFolderHandler(svcs.Folders, logger).RegisterRoutes(r)
	NewDataHandler(svcs.Prompts, svcs.Export, svcs.Reconcile, logger).RegisterRoutes(r)
}
