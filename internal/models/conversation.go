package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the ordered message list owned by a single chat view. It is
// mutated by exactly one send cycle at a time; the caller is responsible for
// not interleaving sends on the same conversation.
type Conversation struct {
	SessionID string
	Messages  []ChatMessage
}

// AppendUserAndPlaceholder appends the submitted user message followed by an
// empty assistant placeholder, which becomes the in-flight message that
// AppendToken grows during streaming. It returns the IDs of both messages.
func (c *Conversation) AppendUserAndPlaceholder(text string) (userID, assistantID string) {
	now := time.Now()
	userID = uuid.New().String()
	assistantID = uuid.New().String()
	c.Messages = append(c.Messages,
		ChatMessage{
			ID:        userID,
			Role:      RoleUser,
			Content:   text,
			Timestamp: now,
		},
		ChatMessage{
			ID:        assistantID,
			Role:      RoleAssistant,
			Timestamp: now,
		},
	)
	return userID, assistantID
}

// AppendToken concatenates token to the trailing assistant message. Tokens are
// applied in call order, so repeated calls never reorder or drop text. Calling
// it when the trailing message is not an assistant message is a programming
// error and does nothing; it must never grow the list.
func (c *Conversation) AppendToken(token string) {
	if len(c.Messages) == 0 {
		return
	}
	last := &c.Messages[len(c.Messages)-1]
	if last.Role != RoleAssistant {
		return
	}
	last.Content += token
}

// ReplaceAll discards every message, speculative or not, in favor of the
// authoritative list fetched from the backend after a stream completes.
func (c *Conversation) ReplaceAll(messages []ChatMessage) {
	c.Messages = messages
}

// MarkLastAsError records a failed send. If the trailing assistant message is
// still empty its content becomes text; otherwise the partial streamed content
// stands and text is appended as a new assistant message.
func (c *Conversation) MarkLastAsError(text string) {
	if len(c.Messages) > 0 {
		last := &c.Messages[len(c.Messages)-1]
		if last.Role == RoleAssistant && last.Content == "" {
			last.Content = text
			return
		}
	}
	c.Messages = append(c.Messages, ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Content:   text,
		Timestamp: time.Now(),
	})
}

// Last returns the trailing message, or false when the conversation is empty.
func (c *Conversation) Last() (ChatMessage, bool) {
	if len(c.Messages) == 0 {
		return ChatMessage{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
