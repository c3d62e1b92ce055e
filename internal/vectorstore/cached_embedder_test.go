package vectorstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCacheMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	entries func() int
}

func (m *countingCacheMetrics) ObserveEntries(name string, entries func() int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == QueryEmbeddingCacheName {
		m.entries = entries
	}
}

func (m *countingCacheMetrics) RecordHit(_ context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == QueryEmbeddingCacheName {
		m.hits++
	}
}

func (m *countingCacheMetrics) RecordMiss(_ context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == QueryEmbeddingCacheName {
		m.misses++
	}
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &keywordEmbedder{}
	metrics := &countingCacheMetrics{}

	cached := NewCachedEmbedder(inner, 10, time.Hour, metrics)

	a, err := cached.CreateEmbedding(ctx, "who knows python?")
	require.NoError(t, err)

	b, err := cached.CreateEmbedding(ctx, "  who knows python?  ")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(1), inner.calls.Load())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)

	_, err = cached.CreateEmbedding(ctx, "java")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())

	require.NotNil(t, metrics.entries)
	assert.Equal(t, 2, metrics.entries())
}

func TestCachedEmbedder_nilMetricsAndErrors(t *testing.T) {
	ctx := context.Background()
	inner := &keywordEmbedder{err: assert.AnError}

	cached := NewCachedEmbedder(inner, 10, time.Hour, nil)

	_, err := cached.CreateEmbedding(ctx, "python")
	require.ErrorIs(t, err, assert.AnError)

	_, err = cached.CreateEmbedding(ctx, "python")
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(2), inner.calls.Load(), "errors are not cached")
}
