package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

func testBoltDB(t *testing.T) services.BoltDB {
	t.Helper()
	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltDBConversation(t *testing.T) {
	db := testBoltDB(t)
	ctx := context.Background()

	_, found, err := db.Conversation(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, found)

	conv := models.Conversation{
		SessionID: "sess-1",
		Messages: []models.ChatMessage{
			{ID: "srv-0", Role: models.RoleUser, Content: "Hola"},
			{ID: "srv-1", Role: models.RoleAssistant, Content: "Buenos días"},
		},
	}
	require.NoError(t, db.SaveConversation(ctx, conv))

	got, found, err := db.Conversation(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, conv.SessionID, got.SessionID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Buenos días", got.Messages[1].Content)

	require.NoError(t, db.DeleteConversation(ctx, "sess-1"))
	_, found, err = db.Conversation(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltDBSaveConversationWithoutSessionID(t *testing.T) {
	db := testBoltDB(t)

	err := db.SaveConversation(context.Background(), models.Conversation{})
	assert.Error(t, err)
}

func TestBoltDBRecentCases(t *testing.T) {
	db := testBoltDB(t)
	ctx := context.Background()

	got, err := db.RecentCases(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)

	cases := []models.Case{
		{ID: 1, Title: "Divorcio García", Status: models.CaseOpen},
		{ID: 2, Title: "Sucesión Pérez", Status: models.CaseClosed},
	}
	require.NoError(t, db.SaveRecentCases(ctx, 7, cases))

	got, err = db.RecentCases(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, cases, got)

	// Lists are scoped per user.
	other, err := db.RecentCases(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, other)
}
