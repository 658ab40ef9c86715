package models

import (
	"fmt"
	"time"
)

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message written by the person using the chat.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the AI agent.
	RoleAssistant Role = "assistant"
)

// ChatMessage is an individual entry in a conversation. During streaming the
// content of the trailing assistant message grows token by token; once the
// authoritative session state is fetched the whole list is replaced.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Context holds the retrieval citations backing this message. The backend
	// reports context for the most recent generation only, so it is ever only
	// attached to the trailing assistant message.
	Context []ContextItem
}

// ContextItem is a single retrieval citation attached to an assistant message.
type ContextItem struct {
	Document ContextDocument `json:"document"`
	Score    float64         `json:"score"`
}

// ContextDocument is the retrieved chunk behind a citation. Metadata is
// loosely typed upstream; use Source and PageLabel for the common keys.
type ContextDocument struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// Source returns the source filename recorded in the chunk metadata, or an
// empty string when the backend did not include one.
func (d ContextDocument) Source() string {
	for _, key := range []string{"source_filename", "source"} {
		if v, ok := d.Metadata[key]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// PageLabel returns the page label recorded in the chunk metadata. Backends
// emit it either as a string or a number.
func (d ContextDocument) PageLabel() string {
	for _, key := range []string{"page_label", "page"} {
		if v, ok := d.Metadata[key]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
