package service

import (
	"context"
	"testing"

	"github.com/parley-chat/parley/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArtifact(t *testing.T, env *testEnv, convID, msgID uint, identifier, content string) *models.Artifact {
	t.Helper()
	a, err := env.artifacts.Create(context.Background(), DefaultUserID, convID, &models.CreateArtifactRequest{
		MessageID:  msgID,
		Type:       models.ArtifactTypeCode,
		Title:      "main.go",
		Identifier: identifier,
		Language:   "go",
		Content:    content,
	})
	require.NoError(t, err)
	return a
}

func TestArtifact_VersionScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.conversation(t, "artifacts")
	msg := env.message(t, conv.ID, models.RoleAssistant, "here is code")

	v1 := newArtifact(t, env, conv.ID, msg.ID, "", "A")
	assert.Equal(t, 1, v1.Version)
	assert.NotEmpty(t, v1.Identifier)

	v2, err := env.artifacts.Update(ctx, DefaultUserID, v1.ID, &models.UpdateArtifactRequest{Content: ptr("B")})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.Identifier, v2.Identifier)
	assert.Equal(t, "main.go", v2.Title)
	assert.Equal(t, "go", v2.Language)

	versions, err := env.artifacts.Versions(ctx, DefaultUserID, v1.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "A", versions[0].Content)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, "B", versions[1].Content)

	// version 1 is never rewritten
	orig, err := env.artifacts.Get(ctx, DefaultUserID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", orig.Content)
}

func TestArtifact_UpdateFromOldVersionAppendsAfterLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.conversation(t, "artifacts")
	msg := env.message(t, conv.ID, models.RoleAssistant, "code")

	v1 := newArtifact(t, env, conv.ID, msg.ID, "calc", "1")
	for _, content := range []string{"2", "3"} {
		_, err := env.artifacts.Update(ctx, DefaultUserID, v1.ID, &models.UpdateArtifactRequest{Content: ptr(content)})
		require.NoError(t, err)
	}
	// same identifier through create appends too
	v4 := newArtifact(t, env, conv.ID, msg.ID, "calc", "4")
	assert.Equal(t, 4, v4.Version)

	versions, err := env.artifacts.Versions(ctx, DefaultUserID, v4.ID)
	require.NoError(t, err)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version, "versions must be contiguous from 1")
	}
}

func TestArtifact_ListLatestPerIdentifier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.conversation(t, "artifacts")
	msg := env.message(t, conv.ID, models.RoleAssistant, "code")

	a := newArtifact(t, env, conv.ID, msg.ID, "a", "a1")
	newArtifact(t, env, conv.ID, msg.ID, "b", "b1")
	_, err := env.artifacts.Update(ctx, DefaultUserID, a.ID, &models.UpdateArtifactRequest{Content: ptr("a2")})
	require.NoError(t, err)

	latest, err := env.artifacts.ListByConversation(ctx, DefaultUserID, conv.ID, false)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	contents := []string{latest[0].Content, latest[1].Content}
	assert.ElementsMatch(t, []string{"a2", "b1"}, contents)

	all, err := env.artifacts.ListByConversation(ctx, DefaultUserID, conv.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestArtifact_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.conversation(t, "artifacts")
	other := env.conversation(t, "other")
	msg := env.message(t, conv.ID, models.RoleAssistant, "code")
	foreign := env.message(t, other.ID, models.RoleAssistant, "code")

	base := models.CreateArtifactRequest{MessageID: msg.ID, Type: models.ArtifactTypeMermaid, Title: "flow", Content: "graph TD; A-->B"}

	bad := base
	bad.Type = "spreadsheet"
	_, err := env.artifacts.Create(ctx, DefaultUserID, conv.ID, &bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = base
	bad.MessageID = foreign.ID
	_, err = env.artifacts.Create(ctx, DefaultUserID, conv.ID, &bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = base
	bad.Content = ""
	_, err = env.artifacts.Create(ctx, DefaultUserID, conv.ID, &bad)
	assert.ErrorIs(t, err, ErrValidation)

	// identifiers are owned by one conversation
	ok := base
	ok.Identifier = "shared-id"
	_, err = env.artifacts.Create(ctx, DefaultUserID, conv.ID, &ok)
	require.NoError(t, err)
	steal := ok
	steal.MessageID = foreign.ID
	_, err = env.artifacts.Create(ctx, DefaultUserID, other.ID, &steal)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.artifacts.Update(ctx, DefaultUserID, 12345, &models.UpdateArtifactRequest{Content: ptr("x")})
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestArtifact_UniqueIndexRejectsDuplicateVersion(t *testing.T) {
	env := newTestEnv(t)
	conv := env.conversation(t, "artifacts")
	msg := env.message(t, conv.ID, models.RoleAssistant, "code")
	v1 := newArtifact(t, env, conv.ID, msg.ID, "dup", "one")

	clash := *v1
	clash.ID = 0
	err := insertArtifact(env.db, &clash)
	assert.ErrorIs(t, err, ErrArtifactVersionConflict)
}

func TestArtifact_CannotVersionInDeletedConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.conversation(t, "gone")
	msg := env.message(t, conv.ID, models.RoleAssistant, "code")
	v1 := newArtifact(t, env, conv.ID, msg.ID, "doc", "A")
	require.NoError(t, env.conversations.Delete(ctx, DefaultUserID, conv.ID))

	_, err := env.artifacts.Update(ctx, DefaultUserID, v1.ID, &models.UpdateArtifactRequest{Content: ptr("B")})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	versions, err := env.artifacts.Versions(ctx, DefaultUserID, v1.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	_, err = env.conversations.Restore(ctx, DefaultUserID, conv.ID)
	require.NoError(t, err)
	v2, err := env.artifacts.Update(ctx, DefaultUserID, v1.ID, &models.UpdateArtifactRequest{Content: ptr("B")})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
}
