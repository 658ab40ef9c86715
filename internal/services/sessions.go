package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// ChatSession fetches one chat session record.
func (c Client) ChatSession(ctx context.Context, sess Session, sessionID string) (models.ChatSession, error) {
	path := fmt.Sprintf("/chats/%s", url.PathEscape(sessionID))
	var chat models.ChatSession
	if err := c.doJSON(ctx, sess, http.MethodGet, path, nil, nil, &chat); err != nil {
		return models.ChatSession{}, fmt.Errorf("failed to fetch chat session %s: %w", sessionID, err)
	}
	return chat, nil
}

// ChatSessionsByCase lists the chat sessions opened on a case.
func (c Client) ChatSessionsByCase(ctx context.Context, sess Session, caseID int) ([]models.ChatSession, error) {
	var chats []models.ChatSession
	path := fmt.Sprintf("/chats/caso/%d", caseID)
	if err := c.doJSON(ctx, sess, http.MethodGet, path, nil, nil, &chats); err != nil {
		return nil, fmt.Errorf("failed to list chat sessions for case %d: %w", caseID, err)
	}
	return chats, nil
}

// CreateChatSession opens a new chat session on a case with a chosen prompt.
func (c Client) CreateChatSession(ctx context.Context, sess Session, create models.ChatSessionCreate) (models.ChatSession, error) {
	var chat models.ChatSession
	if err := c.doJSON(ctx, sess, http.MethodPost, "/chats/", nil, create, &chat); err != nil {
		return models.ChatSession{}, fmt.Errorf("failed to create chat session: %w", err)
	}
	return chat, nil
}

// ArchiveChatSession deactivates a chat session; the conversation checkpoint
// stays on the backend.
func (c Client) ArchiveChatSession(ctx context.Context, sess Session, sessionID string) (models.ChatSession, error) {
	path := fmt.Sprintf("/chats/%s", url.PathEscape(sessionID))
	var chat models.ChatSession
	if err := c.doJSON(ctx, sess, http.MethodDelete, path, nil, nil, &chat); err != nil {
		return models.ChatSession{}, fmt.Errorf("failed to archive chat session %s: %w", sessionID, err)
	}
	return chat, nil
}
