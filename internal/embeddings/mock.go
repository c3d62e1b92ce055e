package embeddings

import (
	"context"
	"crypto/sha256"
	"strings"

	vecmath "github.com/hirescope/hirescope/pkg/embeddings"
)

// MockClient generates deterministic unit vectors seeded by the sha256 of the text.
// Identical texts get identical vectors; unrelated texts land far apart. Used offline and in tests.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a mock embedder with the given dimensions (1536 when <= 0).
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 1536
	}

	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding returns the deterministic vector for input.
func (c *MockClient) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	hash := sha256.Sum256([]byte(input))
	vec := make([]float32, c.dimensions)

	// Walk the hash bytes cyclically, mapping each to [-1, 1].
	for i := range vec {
		vec[i] = float32(hash[i%len(hash)])/127.5 - 1.0
	}

	vecmath.NormalizeL2(vec)

	return vec, nil
}
