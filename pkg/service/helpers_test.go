package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	events        *event.Emitter
	users         *UserService
	projects      *ProjectService
	conversations *ConversationService
	messages      *MessageService
	artifacts     *ArtifactService
	folders       *FolderService
	shares        *ShareService
	export        *ExportService
	reconcile     *ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	events := event.NewEmitter()
	env := &testEnv{
		db:            gdb,
		events:        events,
		users:         NewUserService(gdb, events),
		projects:      NewProjectService(gdb, events),
		conversations: NewConversationService(gdb, events),
		messages:      NewMessageService(gdb, events),
		artifacts:     NewArtifactService(gdb, events),
		folders:       NewFolderService(gdb, events),
		shares:        NewShareService(gdb),
		export:        NewExportService(gdb),
		reconcile:     NewReconcileService(gdb),
	}
	_, err = env.users.EnsureDefault(context.Background())
	require.NoError(t, err)
	return env
}

func (e *testEnv) conversation(t *testing.T, title string) *models.Conversation {
	t.Helper()
	conv, err := e.conversations.Create(context.Background(), DefaultUserID, &models.CreateConversationRequest{Title: title})
	require.NoError(t, err)
	return conv
}

func (e *testEnv) message(t *testing.T, convID uint, role, content string) *models.Message {
	t.Helper()
	msg, err := e.messages.Create(context.Background(), DefaultUserID, convID, &models.CreateMessageRequest{Role: role, Content: content})
	require.NoError(t, err)
	return msg
}

func ptr[T any](v T) *T { return &v }
