package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvia/lexvia-web-ui/internal/models"
	"github.com/lexvia/lexvia-web-ui/internal/services"
)

func entry(typ, content string) services.AgentEntry {
	return services.AgentEntry{
		Type: typ,
		Data: services.AgentEntryData{Content: json.RawMessage(content)},
	}
}

func TestParseAgentMessages(t *testing.T) {
	tests := []struct {
		name    string
		entries []services.AgentEntry
		want    []models.ChatMessage
	}{
		{
			name: "roles map and unknown types are dropped",
			entries: []services.AgentEntry{
				entry("human", `"Hola"`),
				entry("ai", `"Buenos días"`),
				entry("tool", `"lookup result"`),
				entry("assistant", `"Sigo aquí"`),
			},
			want: []models.ChatMessage{
				{ID: "srv-0", Role: models.RoleUser, Content: "Hola"},
				{ID: "srv-1", Role: models.RoleAssistant, Content: "Buenos días"},
				{ID: "srv-2", Role: models.RoleAssistant, Content: "Sigo aquí"},
			},
		},
		{
			name: "non-string content is coerced",
			entries: []services.AgentEntry{
				entry("human", `null`),
				entry("ai", `{"parts":["a","b"]}`),
			},
			want: []models.ChatMessage{
				{ID: "srv-0", Role: models.RoleUser, Content: ""},
				{ID: "srv-1", Role: models.RoleAssistant, Content: `{"parts":["a","b"]}`},
			},
		},
		{
			name:    "empty list",
			entries: nil,
			want:    []models.ChatMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.ParseAgentMessages(tt.entries, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAgentMessagesContextAttachment(t *testing.T) {
	contextItems := []models.ContextItem{
		{Document: models.ContextDocument{PageContent: "art. 1281"}, Score: 0.91},
	}

	t.Run("attached to trailing assistant message", func(t *testing.T) {
		got := services.ParseAgentMessages([]services.AgentEntry{
			entry("human", `"Hola"`),
			entry("ai", `"Buenos días"`),
		}, contextItems)

		require.Len(t, got, 2)
		assert.Empty(t, got[0].Context)
		assert.Equal(t, contextItems, got[1].Context)
	})

	t.Run("not attached when trailing message is from the user", func(t *testing.T) {
		got := services.ParseAgentMessages([]services.AgentEntry{
			entry("ai", `"Buenos días"`),
			entry("human", `"Hola"`),
		}, contextItems)

		require.Len(t, got, 2)
		for _, msg := range got {
			assert.Empty(t, msg.Context)
		}
	})
}

func TestParseAgentMessagesDeterministic(t *testing.T) {
	entries := []services.AgentEntry{
		entry("human", `"Hola"`),
		entry("tool", `"noise"`),
		entry("ai", `"Buenos días"`),
	}

	first := services.ParseAgentMessages(entries, nil)
	second := services.ParseAgentMessages(entries, nil)

	assert.Equal(t, first, second)
}

func TestReconcile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat-agent/sess-1/state", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "sess-1",
			"status":     "idle",
			"state": map[string]any{
				"messages": []map[string]any{
					{"type": "human", "data": map[string]any{"content": "Hola"}},
					{"type": "ai", "data": map[string]any{"content": "Buenos días"}},
				},
				"context": []map[string]any{
					{"document": map[string]any{"page_content": "art. 1281"}, "score": 0.91},
				},
			},
		})
	}))
	defer srv.Close()

	client := services.NewClient(srv.URL, 0, testLogger())
	got, err := client.Reconcile(context.Background(), testSession(), "sess-1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.RoleUser, got[0].Role)
	assert.Equal(t, models.RoleAssistant, got[1].Role)
	assert.Equal(t, "Buenos días", got[1].Content)
	require.Len(t, got[1].Context, 1)
	assert.Equal(t, "art. 1281", got[1].Context[0].Document.PageContent)
}

func TestReconcileGeneral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat-agent/general/state", r.URL.Path)
		assert.Equal(t, "thread-9", r.URL.Query().Get("thread_id"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "thread-9",
			"state": map[string]any{
				"messages": []map[string]any{
					{"type": "human", "data": map[string]any{"content": "Hola"}},
				},
			},
		})
	}))
	defer srv.Close()

	client := services.NewClient(srv.URL, 0, testLogger())
	got, err := client.ReconcileGeneral(context.Background(), testSession(), "thread-9")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.RoleUser, got[0].Role)
}
