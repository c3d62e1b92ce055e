package rag

import (
	"regexp"
	"strings"

	"github.com/hirescope/hirescope/internal/llm"
)

// Fixed replies.
const (
	GreetingReply   = "You're welcome! How can I assist you with candidate information?"
	EmptyStoreReply = "No résumés in the database. Upload some résumés first."
	NotFoundReply   = "I’m sorry, I don’t have résumé data that answers that."
	RefusalReply    = "Sorry, I can only answer questions about candidates based on the résumé snippets provided."
)

// ContextSeparator joins retrieved documents in the system prompt.
const ContextSeparator = "\n\n---\n\n"

var greetingPattern = regexp.MustCompile(`(?i)^(?:hi|hello|hey|thanks|thank you|good (?:morning|afternoon|evening))[!. ]*$`)

// IsGreeting reports whether the whole trimmed query is a greeting or a thank-you.
func IsGreeting(query string) bool {
	return greetingPattern.MatchString(strings.TrimSpace(query))
}

// ClassifierPrompt asks for a Yes/No recruiting-relevance verdict on query.
func ClassifierPrompt(query string) string {
	return "Respond ONLY with 'Yes' or 'No'. Does this query relate to candidates, " +
		"resumes, recruiting, jobs or HR?\n" +
		"Query: \"" + query + "\""
}

// SystemPrompt grounds the model on the retrieved context.
func SystemPrompt(context string) string {
	return "You are a recruiting assistant. " +
		"Answer ONLY from résumé snippets provided in context. " +
		"If the query is unrelated to candidates or résumés, " +
		"say: '" + RefusalReply + "'\n\n" +
		"Answer ONLY from these résumé snippets:\n\n" + context
}

// BuildMessages assembles system prompt, trimmed history and the query. System turns in
// history are dropped and only the last maxHistory turns are kept (all when maxHistory <= 0).
func BuildMessages(context string, history []llm.Message, query string, maxHistory int) []llm.Message {
	kept := make([]llm.Message, 0, len(history))

	for _, m := range history {
		if m.Role == llm.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}

		kept = append(kept, m)
	}

	if maxHistory > 0 && len(kept) > maxHistory {
		kept = kept[len(kept)-maxHistory:]
	}

	msgs := make([]llm.Message, 0, len(kept)+2)
	msgs = append(msgs, llm.System(SystemPrompt(context)))
	msgs = append(msgs, kept...)
	msgs = append(msgs, llm.User(query))

	return msgs
}
