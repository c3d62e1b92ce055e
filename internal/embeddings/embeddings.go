// Package embeddings selects and builds the text embedding provider for the vector store.
package embeddings

import (
	"context"
	"fmt"

	"github.com/hirescope/hirescope/internal/config"
	"github.com/hirescope/hirescope/internal/openai"
)

// Client turns text into an embedding vector.
type Client interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// NewFromConfig returns the provider named by cfg.EmbeddingProvider.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		return openai.NewEmbeddingClient(cfg.EmbeddingProviderAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case config.EmbeddingProviderGoogle:
		return NewGoogleClient(ctx, cfg.EmbeddingProviderAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	case config.EmbeddingProviderMock:
		return NewMockClient(cfg.EmbeddingDimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

var (
	_ Client = (*MockClient)(nil)
	_ Client = (*GoogleClient)(nil)
	_ Client = (*openai.EmbeddingClient)(nil)
)
