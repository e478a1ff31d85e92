package service

import (
	"github.com/parley-chat/parley/pkg/event"
	"gorm.io/gorm"
)

// Services bundles every domain service sharing one database and emitter.
type Services struct {
	Users         *UserService
	Projects      *ProjectService
	Conversations *ConversationService
	Messages      *MessageService
	Artifacts     *ArtifactService
	Folders       *FolderService
	Shares        *ShareService
	Export        *ExportService
	Reconcile     *ReconcileService
	Prompts       *PromptService
}

// New wires all services. promptsPath optionally overrides the built-in
// prompt catalog.
func New(db *gorm.DB, events *event.Emitter, promptsPath string) (*Services, error) {
	prompts, err := NewPromptService(promptsPath)
	if err != nil {
		return nil, err
	}
	return &Services{
		Users:         NewUserService(db, events),
		Projects:      NewProjectService(db, events),
		Conversations: NewConversationService(db, events),
		Messages:      NewMessageService(db, events),
		Artifacts:     NewArtifactService(db, events),
		Folders:       NewFolderService(db, events),
		Shares:        NewShareService(db),
		Export:        NewExportService(db),
		Reconcile:     NewReconcileService(db),
		Prompts:       prompts,
	}, nil
}
