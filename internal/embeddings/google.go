package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	vecmath "github.com/hirescope/hirescope/pkg/embeddings"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with blank input.
	ErrEmptyInput = errors.New("embeddings: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("embeddings: dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the provider response has no vector.
	ErrNoEmbeddingInResponse = errors.New("embeddings: no embedding in response")
	// ErrDimensionMismatch is returned when the vector length differs from the configured dimensions.
	ErrDimensionMismatch = errors.New("embeddings: dimension mismatch")
)

const defaultGoogleModel = "gemini-embedding-001"

// GoogleClient calls the Gemini embeddings API through the Gen AI SDK.
// Vectors requested below the model's native size are not unit length, so they are L2-normalized.
type GoogleClient struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewGoogleClient creates a Gemini embeddings client. An empty model uses gemini-embedding-001.
func NewGoogleClient(ctx context.Context, apiKey, model string, dimensions int) (*GoogleClient, error) {
	if dimensions <= 0 || dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	if model == "" {
		model = defaultGoogleModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return &GoogleClient{
		client: client,
		model:  model,
		//nolint:gosec // G115: bounded above by math.MaxInt32
		dimensions: int32(dimensions),
	}, nil
}

// CreateEmbedding returns a unit-length vector of the configured size for input.
func (c *GoogleClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	dims := c.dimensions

	resp, err := c.client.Models.EmbedContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(input, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: &dims},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, ErrNoEmbeddingInResponse
	}

	values := resp.Embeddings[0].Values
	if len(values) != int(c.dimensions) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), c.dimensions)
	}

	out := make([]float32, len(values))
	copy(out, values)
	vecmath.NormalizeL2(out)

	return out, nil
}
