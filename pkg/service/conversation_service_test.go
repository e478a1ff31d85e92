package service

import (
	"context"
	"testing"

	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listIDs(convs []models.Conversation) []uint {
	ids := make([]uint, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestConversation_MathTestScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conv := env.conversation(t, "Math Test")
	assert.Equal(t, db.DefaultModel, conv.Model)
	assert.Zero(t, conv.MessageCount)

	env.message(t, conv.ID, models.RoleUser, "What is 2+2?")

	got, err := env.conversations.Get(ctx, DefaultUserID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math Test", got.Title)
	assert.Equal(t, 1, got.MessageCount)
	require.NotNil(t, got.LastMessageAt)
}

func TestConversation_CreatedIDsAreUniqueAndListed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := map[uint]bool{}
	for _, title := range []string{"one", "two", "three"} {
		conv := env.conversation(t, title)
		assert.False(t, seen[conv.ID], "duplicate id %d", conv.ID)
		seen[conv.ID] = true

		list, err := env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{})
		require.NoError(t, err)
		assert.Contains(t, listIDs(list), conv.ID)
	}
}

func TestConversation_ListOrdersByLastActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	older := env.conversation(t, "older")
	env.conversation(t, "newer")
	env.message(t, older.ID, models.RoleUser, "bump")

	list, err := env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestConversation_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.conversations.Create(ctx, DefaultUserID, &models.CreateConversationRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.conversations.Create(ctx, DefaultUserID, &models.CreateConversationRequest{Title: "x", ProjectID: ptr(uint(999))})
	assert.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "project_id", verr.Field)
}

func TestConversation_UpdatePatchesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	project, err := env.projects.Create(ctx, DefaultUserID, &models.CreateProjectRequest{Name: "Research"})
	require.NoError(t, err)
	conv := env.conversation(t, "draft")

	updated, err := env.conversations.Update(ctx, DefaultUserID, conv.ID, &models.UpdateConversationRequest{
		ProjectID: models.SetID(project.ID),
		IsPinned:  ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Title)
	require.NotNil(t, updated.ProjectID)
	assert.Equal(t, project.ID, *updated.ProjectID)
	assert.True(t, updated.IsPinned)

	// explicit null unfiles
	updated, err = env.conversations.Update(ctx, DefaultUserID, conv.ID, &models.UpdateConversationRequest{
		ProjectID: models.NullableID{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ProjectID)

	_, err = env.conversations.Update(ctx, DefaultUserID, conv.ID, &models.UpdateConversationRequest{Title: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.conversations.Update(ctx, DefaultUserID, 404, &models.UpdateConversationRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversation_ArchiveAndDeleteHideFromDefaultList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	archived := env.conversation(t, "archived")
	deleted := env.conversation(t, "deleted")
	live := env.conversation(t, "live")
	env.message(t, deleted.ID, models.RoleUser, "still here")

	_, err := env.conversations.SetArchived(ctx, DefaultUserID, archived.ID, true)
	require.NoError(t, err)
	require.NoError(t, env.conversations.Delete(ctx, DefaultUserID, deleted.ID))

	list, err := env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{live.ID}, listIDs(list))

	list, err = env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{OnlyArchived: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{archived.ID}, listIDs(list))

	// soft-deleted conversations stay directly readable
	msgs, err := env.messages.List(ctx, DefaultUserID, deleted.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "still here", msgs[0].Content)

	restored, err := env.conversations.Restore(ctx, DefaultUserID, deleted.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
}

func TestConversation_SearchAndProjectFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	project, err := env.projects.Create(ctx, DefaultUserID, &models.CreateProjectRequest{Name: "P"})
	require.NoError(t, err)
	inProject, err := env.conversations.Create(ctx, DefaultUserID, &models.CreateConversationRequest{Title: "Budget 100% review", ProjectID: &project.ID})
	require.NoError(t, err)
	env.conversation(t, "Budget draft")

	list, err := env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{ProjectID: &project.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{inProject.ID}, listIDs(list))

	list, err = env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []uint{inProject.ID}, listIDs(list))

	list, err = env.conversations.List(ctx, DefaultUserID, models.ConversationFilter{Search: "budget"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConversation_PurgeRequiresSoftDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conv := env.conversation(t, "temp")
	msg := env.message(t, conv.ID, models.RoleAssistant, "hello")
	_, err := env.artifacts.Create(ctx, DefaultUserID, conv.ID, &models.CreateArtifactRequest{
		MessageID: msg.ID, Type: models.ArtifactTypeCode, Title: "snippet", Content: "x := 1",
	})
	require.NoError(t, err)

	err = env.conversations.Purge(ctx, DefaultUserID, conv.ID)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, env.conversations.Delete(ctx, DefaultUserID, conv.ID))
	require.NoError(t, env.conversations.Purge(ctx, DefaultUserID, conv.ID))

	_, err = env.conversations.Get(ctx, DefaultUserID, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, env.db.Model(&models.Artifact{}).Where("conversation_id = ?", conv.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
