package models

import "time"

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior {role, content} pair passed to the query engine as history.
type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"no_null_bytes,max=20000"`
}

// ChatMessage is a message stored in a conversation.
// Sources is set on assistant messages grounded in retrieved résumés.
type ChatMessage struct {
	Role      Role                `json:"role"`
	Content   string              `json:"content"`
	Sources   []CandidateMetadata `json:"sources,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Conversation is a chat session: an ordered message history under a generated title.
type Conversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// QueryRequest is a stateless question with explicit history.
type QueryRequest struct {
	Query   string `json:"query" validate:"required,no_null_bytes,min=1,max=4000"`
	History []Turn `json:"history,omitempty" validate:"omitempty,max=200,dive"`
	TopK    int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

// QueryResponse is the engine's answer and the résumés it was grounded on.
type QueryResponse struct {
	Answer    string              `json:"answer"`
	Sources   []CandidateMetadata `json:"sources"`
	Outcome   string              `json:"outcome"`
	Relevance string              `json:"relevance"`
	Degraded  bool                `json:"degraded,omitempty"`
}

// SendMessageRequest appends a user message to a conversation.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,no_null_bytes,min=1,max=4000"`
	TopK    int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

// SendMessageResponse carries the assistant reply appended to the conversation.
type SendMessageResponse struct {
	ConversationID string      `json:"conversation_id"`
	Title          string      `json:"title"`
	Message        ChatMessage `json:"message"`
}
