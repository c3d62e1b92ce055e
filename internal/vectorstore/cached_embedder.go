package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hirescope/hirescope/internal/observability"
	"github.com/hirescope/hirescope/pkg/cache"
)

// QueryEmbeddingCacheName labels cache metrics for embedded texts.
const QueryEmbeddingCacheName = "query_embedding"

// CachedEmbedder memoizes embeddings by text hash and coalesces concurrent requests for the same text.
type CachedEmbedder struct {
	inner   Embedder
	cache   *cache.LoaderCache[string, []float32]
	metrics observability.CacheMetrics
}

// NewCachedEmbedder wraps inner with an LRU of maxEntries whose entries expire after ttl.
// metrics may be nil.
func NewCachedEmbedder(inner Embedder, maxEntries int, ttl time.Duration, metrics observability.CacheMetrics) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:   inner,
		cache:   cache.NewExpiringLoaderCache[string, []float32](maxEntries, ttl, hashText),
		metrics: metrics,
	}

	if metrics != nil {
		metrics.ObserveEntries(QueryEmbeddingCacheName, c.cache.Len)
	}

	return c
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}

// CreateEmbedding returns the cached vector for input, calling the wrapped embedder on a miss.
func (c *CachedEmbedder) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)

	vec, hit, err := c.cache.GetWithStats(ctx, input, c.inner.CreateEmbedding)
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		if hit {
			c.metrics.RecordHit(ctx, QueryEmbeddingCacheName)
		} else {
			c.metrics.RecordMiss(ctx, QueryEmbeddingCacheName)
		}
	}

	return vec, nil
}
