package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/hirescope/hirescope/internal/llm"
)

// ErrNoChoices is returned when a completion response has no choices.
var ErrNoChoices = errors.New("openai: completion returned no choices")

const defaultChatModel = "gpt-4o"

// ChatClient implements llm.ChatModel with OpenAI chat completions.
type ChatClient struct {
	sdk     openaisdk.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

// ChatOption configures the ChatClient.
type ChatOption func(*ChatClient)

// WithChatModel sets the model used when a request leaves Model empty.
func WithChatModel(model string) ChatOption {
	return func(c *ChatClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRateLimiter makes every call wait for a token from limiter first.
func WithRateLimiter(limiter *rate.Limiter) ChatOption {
	return func(c *ChatClient) {
		c.limiter = limiter
	}
}

// WithTimeout bounds each completion call. Zero disables the per-call deadline.
func WithTimeout(timeout time.Duration) ChatOption {
	return func(c *ChatClient) {
		c.timeout = timeout
	}
}

// WithSDKOptions passes extra request options (base URL, HTTP client) to the SDK.
func WithSDKOptions(opts ...option.RequestOption) ChatOption {
	return func(c *ChatClient) {
		c.sdk = openaisdk.NewClient(opts...)
	}
}

// NewChatClient creates a chat-completion client.
func NewChatClient(apiKey string, opts ...ChatOption) *ChatClient {
	client := &ChatClient{
		sdk:   openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model: defaultChatModel,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Complete sends req and returns the first choice's message content.
func (c *ChatClient) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("openai rate limit wait: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(model),
		Messages:    toSDKMessages(req.Messages),
		Temperature: openaisdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

func toSDKMessages(msgs []llm.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}

	return out
}

var _ llm.ChatModel = (*ChatClient)(nil)
