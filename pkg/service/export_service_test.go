package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parley-chat/parley/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_IncludesEveryNonPurgedConversationOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.projects.Create(ctx, DefaultUserID, &models.CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	_, err = env.folders.Create(ctx, DefaultUserID, &models.CreateFolderRequest{Name: "F"})
	require.NoError(t, err)

	live := env.conversation(t, "live")
	msg := env.message(t, live.ID, models.RoleAssistant, "answer")
	env.message(t, live.ID, models.RoleUser, "thanks")
	newArtifact(t, env, live.ID, msg.ID, "x", "v1")

	softDeleted := env.conversation(t, "soft")
	env.message(t, softDeleted.ID, models.RoleUser, "bye")
	require.NoError(t, env.conversations.Delete(ctx, DefaultUserID, softDeleted.ID))

	purged := env.conversation(t, "purged")
	require.NoError(t, env.conversations.Delete(ctx, DefaultUserID, purged.ID))
	require.NoError(t, env.conversations.Purge(ctx, DefaultUserID, purged.ID))

	out, err := env.export.Export(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportVersion, out.Version)
	assert.Equal(t, "Default User", out.User.Name)

	byID := map[uint]models.ExportConversation{}
	for _, c := range out.Conversations {
		_, dup := byID[c.ID]
		assert.False(t, dup, "conversation %d exported twice", c.ID)
		byID[c.ID] = c
	}
	require.Len(t, byID, 2)
	assert.Len(t, byID[live.ID].Messages, 2)
	assert.Len(t, byID[live.ID].Artifacts, 1)
	assert.True(t, byID[softDeleted.ID].IsDeleted)
	assert.NotContains(t, byID, purged.ID)

	want := models.Statistics{TotalProjects: 1, TotalConversations: 2, TotalMessages: 3, TotalArtifacts: 1, TotalFolders: 1}
	assert.Equal(t, want, out.Statistics)

	stats, err := env.export.Stats(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, out.Statistics, *stats)
}

func TestPromptService_EmbeddedAndOverride(t *testing.T) {
	svc, err := NewPromptService("")
	require.NoError(t, err)
	assert.NotEmpty(t, svc.Library())
	assert.NotEmpty(t, svc.Examples())
	for _, cat := range svc.Library() {
		assert.NotEmpty(t, cat.Name)
		assert.NotEmpty(t, cat.Templates)
	}

	missing, err := NewPromptService(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, svc.Library(), missing.Library())

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("examples:\n  - title: Hi\n    prompt: Say hi\n"), 0o600))
	custom, err := NewPromptService(path)
	require.NoError(t, err)
	assert.Empty(t, custom.Library())
	require.Len(t, custom.Examples(), 1)
	assert.Equal(t, "Say hi", custom.Examples()[0].Prompt)

	require.NoError(t, os.WriteFile(path, []byte("examples: [\n"), 0o600))
	_, err = NewPromptService(path)
	assert.Error(t, err)
}
