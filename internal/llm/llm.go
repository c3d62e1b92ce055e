// Package llm defines the chat-completion contract used by the RAG engine and the résumé summarizer.
package llm

import "context"

// Role is the author of a chat message.
type Role string

// Message roles understood by chat-completion providers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is a single completion call. MaxTokens <= 0 leaves the provider default.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatModel produces the assistant reply for a request. Implementations return the content
// of the first choice.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ChatModelFunc adapts a function to ChatModel.
type ChatModelFunc func(ctx context.Context, req ChatRequest) (string, error)

// Complete calls f.
func (f ChatModelFunc) Complete(ctx context.Context, req ChatRequest) (string, error) {
	return f(ctx, req)
}

// System, User and Assistant build messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
