package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// AgentState is the authoritative conversation checkpoint held by the backend
// for a chat session or general-chat thread.
type AgentState struct {
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	State     AgentStateInner `json:"state"`
}

// AgentStateInner holds the raw message list plus the retrieval context of the
// most recent generation, when there is one.
type AgentStateInner struct {
	Messages []AgentEntry         `json:"messages"`
	Context  []models.ContextItem `json:"context"`
}

// AgentEntry is one loosely-typed entry of the backend's message list. Type is
// "human", "ai" or "assistant"; anything else is dropped during parsing.
type AgentEntry struct {
	Type string         `json:"type"`
	Data AgentEntryData `json:"data"`
}

// AgentEntryData carries the entry content. Content is kept raw because the
// upstream schema does not guarantee a string.
type AgentEntryData struct {
	Content json.RawMessage `json:"content"`
}

// ContentString normalizes the raw content. Strings decode as themselves,
// null and absent content become empty, and anything else falls back to its
// JSON text.
func (d AgentEntryData) ContentString() string {
	if len(d.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Content, &s); err == nil {
		return s
	}
	if string(d.Content) == "null" {
		return ""
	}
	return string(d.Content)
}

// AgentState fetches the checkpoint of a case-bound chat session.
func (c Client) AgentState(ctx context.Context, sess Session, sessionID string) (AgentState, error) {
	path := fmt.Sprintf("/chat-agent/%s/state", url.PathEscape(sessionID))
	var state AgentState
	if err := c.doJSON(ctx, sess, http.MethodGet, path, nil, nil, &state); err != nil {
		return AgentState{}, fmt.Errorf("failed to fetch agent state: %w", err)
	}
	return state, nil
}

// GeneralState fetches the checkpoint of a general-chat thread.
func (c Client) GeneralState(ctx context.Context, sess Session, threadID string) (AgentState, error) {
	query := url.Values{}
	query.Set("thread_id", threadID)
	var state AgentState
	if err := c.doJSON(ctx, sess, http.MethodGet, "/chat-agent/general/state", query, nil, &state); err != nil {
		return AgentState{}, fmt.Errorf("failed to fetch general state: %w", err)
	}
	return state, nil
}

// Reconcile fetches the authoritative state of a chat session and returns the
// parsed message list, ready for models.Conversation.ReplaceAll. The result is
// a pure function of the server state.
func (c Client) Reconcile(ctx context.Context, sess Session, sessionID string) ([]models.ChatMessage, error) {
	state, err := c.AgentState(ctx, sess, sessionID)
	if err != nil {
		return nil, err
	}
	return ParseAgentMessages(state.State.Messages, state.State.Context), nil
}

// ReconcileGeneral is Reconcile for general-chat threads.
func (c Client) ReconcileGeneral(ctx context.Context, sess Session, threadID string) ([]models.ChatMessage, error) {
	state, err := c.GeneralState(ctx, sess, threadID)
	if err != nil {
		return nil, err
	}
	return ParseAgentMessages(state.State.Messages, state.State.Context), nil
}

// ParseAgentMessages normalizes the backend's raw message list into role-tagged
// chat messages. Entries other than "human", "ai" and "assistant" are dropped;
// "human" maps to the user role and the rest to the assistant role. A non-empty
// context list is attached to the trailing message if and only if that message
// is an assistant one, since context always describes the latest generation.
func ParseAgentMessages(entries []AgentEntry, contextItems []models.ContextItem) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var role models.Role
		switch entry.Type {
		case "human":
			role = models.RoleUser
		case "ai", "assistant":
			role = models.RoleAssistant
		default:
			continue
		}
		// Deterministic IDs keep reconciliation a pure function of the
		// server state.
		messages = append(messages, models.ChatMessage{
			ID:      fmt.Sprintf("srv-%d", len(messages)),
			Role:    role,
			Content: entry.Data.ContentString(),
		})
	}

	if len(contextItems) > 0 && len(messages) > 0 {
		last := &messages[len(messages)-1]
		if last.Role == models.RoleAssistant {
			last.Context = contextItems
		}
	}

	return messages
}
